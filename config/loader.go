package config

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
)

// Returned by a source that must not fall through to the next one,
// e.g. a config file that was named but can not be read.
type HardError struct {
	Err error
}

func (self HardError) Error() string {
	return self.Err.Error()
}

func (self HardError) Unwrap() error {
	return self.Err
}

type source struct {
	name string
	load func(self *Loader) (*Config, error)
}

// A named step applied to the loaded config: mutators run first, then
// the built in validation, then custom validators.
type step struct {
	name  string
	apply func(config_obj *Config) error
}

// Loader tries each source in turn until one produces a config.
// Builder methods return a modified copy so a base loader can be
// shared between commands.
type Loader struct {
	verbose  bool
	log_func func(format string, v ...interface{})

	sources    []source
	mutators   []step
	validators []step
}

func NewLoader() *Loader {
	return &Loader{}
}

func (self *Loader) Copy() *Loader {
	return &Loader{
		verbose:    self.verbose,
		log_func:   self.log_func,
		sources:    append([]source{}, self.sources...),
		mutators:   append([]step{}, self.mutators...),
		validators: append([]step{}, self.validators...),
	}
}

func (self *Loader) WithLogger(
	log_func func(format string, v ...interface{})) *Loader {
	result := self.Copy()
	result.log_func = log_func
	return result
}

func (self *Loader) WithVerbose(verbose bool) *Loader {
	result := self.Copy()
	result.verbose = verbose
	return result
}

func (self *Loader) withSource(name string,
	load func(self *Loader) (*Config, error)) *Loader {
	result := self.Copy()
	result.sources = append(result.sources, source{name: name, load: load})
	return result
}

// An empty filename adds nothing.
func (self *Loader) WithFileLoader(filename string) *Loader {
	if filename == "" {
		return self
	}

	return self.withSource("file", func(self *Loader) (*Config, error) {
		self.Log("Loading config from file %v", filename)
		return loadFile(filename)
	})
}

// Loads the file named by an environment variable, when it is set.
func (self *Loader) WithEnvLoader(env_var string) *Loader {
	return self.withSource("env", func(self *Loader) (*Config, error) {
		filename := os.Getenv(env_var)
		if filename == "" {
			return nil, fmt.Errorf("%v is not set", env_var)
		}
		self.Log("Loading config from %v=%v", env_var, filename)
		return loadFile(filename)
	})
}

func (self *Loader) WithDefaultLoader() *Loader {
	return self.withSource("default", func(self *Loader) (*Config, error) {
		self.Log("Using the default config")
		return GetDefaultConfig(), nil
	})
}

func (self *Loader) WithConfigMutator(
	name string, mutator func(config_obj *Config) error) *Loader {
	result := self.Copy()
	result.mutators = append(result.mutators, step{name: name, apply: mutator})
	return result
}

func (self *Loader) WithCustomValidator(
	name string, validator func(config_obj *Config) error) *Loader {
	result := self.Copy()
	result.validators = append(result.validators, step{name: name, apply: validator})
	return result
}

func (self *Loader) Log(format string, v ...interface{}) {
	if self.verbose && self.log_func != nil {
		self.log_func(format, v...)
	}
}

func (self *Loader) Validate(config_obj *Config) error {
	config_obj.Verbose = self.verbose

	for _, mutator := range self.mutators {
		err := mutator.apply(config_obj)
		if err != nil {
			return fmt.Errorf("%v: %w", mutator.name, err)
		}
	}

	err := config_obj.Validate()
	if err != nil {
		return err
	}

	for _, validator := range self.validators {
		err := validator.apply(config_obj)
		if err != nil {
			self.Log("%v: %v", validator.name, err)
			return err
		}
	}
	return nil
}

func (self *Loader) LoadAndValidate() (*Config, error) {
	for _, s := range self.sources {
		config_obj, err := s.load(self)
		if err != nil {
			_, hard := err.(HardError)
			if hard {
				return nil, err
			}
			self.Log("%v: %v", s.name, err)
			continue
		}

		err = self.Validate(config_obj)
		if err != nil {
			return nil, err
		}
		return config_obj, nil
	}

	return nil, errors.New("Unable to load config from any source")
}

// A named file that can not be loaded stops the search.
func loadFile(filename string) (*Config, error) {
	config_obj, err := LoadConfig(filename)
	if err != nil {
		return nil, HardError{errors.Wrap(err, 0)}
	}
	return config_obj, nil
}
