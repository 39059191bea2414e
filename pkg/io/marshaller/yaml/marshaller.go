// Package yamlmarshaller provides the YAML implementation of the marshaller
// contract.
package yamlmarshaller

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

// Marshaller marshals models of type T to and from YAML.
type Marshaller[T any] struct{}

// NewMarshaller creates a YAML marshaller for models of type T.
func NewMarshaller[T any]() Marshaller[T] {
	return Marshaller[T]{}
}

// Marshal encodes the model as YAML text.
func (Marshaller[T]) Marshal(model T) (string, error) {
	data, err := yaml.Marshal(model)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	return string(data), nil
}

// Unmarshal decodes YAML data into the model.
func (Marshaller[T]) Unmarshal(data []byte, model *T) error {
	err := yaml.Unmarshal(data, model)
	if err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}

// UnmarshalString decodes YAML text into the model.
func (m Marshaller[T]) UnmarshalString(data string, model *T) error {
	return m.Unmarshal([]byte(data), model)
}
