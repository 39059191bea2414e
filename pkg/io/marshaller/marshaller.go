// Package marshaller defines the generic serialization contract used for
// descriptor files and rendered process configuration.
package marshaller

// Marshaller converts models of type T to and from their text encoding.
type Marshaller[T any] interface {
	// Marshal encodes the model as text.
	Marshal(model T) (string, error)
	// Unmarshal decodes data into the model.
	Unmarshal(data []byte, model *T) error
	// UnmarshalString decodes data into the model.
	UnmarshalString(data string, model *T) error
}
