package config

//go:generate go run ../tools/schema-generator -o ../schema/layman.schema.json

import (
	"encoding/json"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/grovetools/layman/errors"
	"github.com/grovetools/layman/schema"
	"github.com/invopop/jsonschema"
)

const schemaName = "layman.schema.json"

// GenerateSchema generates the JSON Schema for config.toml from Config.
func GenerateSchema() ([]byte, error) {
	// The root is the reflected Config itself, not a definitions entry.
	r := &jsonschema.Reflector{
		// Unknown keys are almost always typos of a knob name.
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "toml",
		Namer:                     qualifiedName,
	}

	s := r.Reflect(&Config{})
	s.Title = "layman configuration"
	s.Description = "Schema for layman's config.toml."

	return json.MarshalIndent(s, "", "  ")
}

// qualifiedName prefixes types from other packages with their package
// name, so logging.Config becomes LoggingConfig.
func qualifiedName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == ownPkgPath {
		return ""
	}
	pkg := path.Base(t.PkgPath())
	if pkg == "" || pkg == "." {
		return ""
	}
	return strings.ToUpper(pkg[:1]) + pkg[1:] + t.Name()
}

var ownPkgPath = reflect.TypeOf(Config{}).PkgPath()

var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

func loadValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		doc, err := GenerateSchema()
		if err != nil {
			validatorErr = err
			return
		}
		validator, validatorErr = schema.NewValidator(schemaName, doc)
	})
	return validator, validatorErr
}

// ValidateRaw checks a decoded TOML tree against the generated schema.
func ValidateRaw(raw map[string]any) error {
	v, err := loadValidator()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build config schema")
	}
	if err := v.Validate(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "config does not match schema")
	}
	return nil
}
