package yamlmarshaller_test

import (
	"testing"

	"github.com/fleetdb/topoctl/pkg/io/marshaller"
	yamlmarshaller "github.com/fleetdb/topoctl/pkg/io/marshaller/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample model used for tests.
type sample struct {
	Name   string   `json:"name"           yaml:"name"`
	Count  int      `json:"count"          yaml:"count"`
	Active bool     `json:"active"         yaml:"active"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// bad is a type that cannot be marshaled due to the func field.
type bad struct {
	F func()
}

func TestMarshalSuccess(t *testing.T) {
	t.Parallel()

	mar := yamlmarshaller.NewMarshaller[sample]()
	want := sample{
		Name:   "app",
		Count:  3,
		Active: true,
		Tags:   []string{"dev", "test"},
	}

	out, err := mar.Marshal(want)

	require.NoError(t, err)
	assert.Contains(t, out, "name: app")
	assert.Contains(t, out, "count: 3")
	assert.Contains(t, out, "active: true")

	// Round-trip to ensure content encodes the same data
	var got sample

	require.NoError(t, mar.UnmarshalString(out, &got))
	assert.Equal(t, want, got)
}

func TestUnmarshalSuccess(t *testing.T) {
	t.Parallel()

	mar := yamlmarshaller.NewMarshaller[sample]()
	data := []byte("" +
		"name: app\n" +
		"count: 3\n" +
		"active: true\n" +
		"tags:\n" +
		"- dev\n" +
		"- test\n",
	)
	want := sample{
		Name:   "app",
		Count:  3,
		Active: true,
		Tags:   []string{"dev", "test"},
	}

	var got sample

	require.NoError(t, mar.Unmarshal(data, &got))
	assert.Equal(t, want, got)
}

func TestMarshalErrorUnsupportedType(t *testing.T) {
	t.Parallel()

	mar := yamlmarshaller.NewMarshaller[bad]()

	yamlText, err := mar.Marshal(bad{F: func() {}})

	require.Error(t, err)
	assert.Empty(t, yamlText)
	assert.ErrorContains(t, err, "failed to marshal YAML")
}

func TestUnmarshalErrorMalformedInput(t *testing.T) {
	t.Parallel()

	assertUnmarshalError(t, func(mar marshaller.Marshaller[sample], model *sample) error {
		return mar.Unmarshal([]byte("name: [unclosed"), model)
	})
	assertUnmarshalError(t, func(mar marshaller.Marshaller[sample], model *sample) error {
		return mar.UnmarshalString("name: [unclosed", model)
	})
}

// assertUnmarshalError runs the provided unmarshal op and asserts the wrapped error.
func assertUnmarshalError(
	t *testing.T,
	operation func(mar marshaller.Marshaller[sample], model *sample) error,
) {
	t.Helper()

	mar := yamlmarshaller.NewMarshaller[sample]()

	var model sample

	err := operation(mar, &model)

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to unmarshal YAML")
}
