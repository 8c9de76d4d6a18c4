package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment names one of the closed set of configuration profiles.
type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Staging    Environment = "staging"
	Production Environment = "production"
)

// EnvVar selects the active profile.
const EnvVar = "APP_ENV"

// DefaultEnvironment applies only when EnvVar is absent. A value that is set
// but not recognized never falls back to it.
const DefaultEnvironment = Local

// ErrUnknownEnvironment is returned when an environment name matches no profile.
var ErrUnknownEnvironment = errors.New("unknown environment")

// EnvironmentError reports the rejected name.
type EnvironmentError struct {
	Name string
}

func (e *EnvironmentError) Error() string {
	names := make([]string, 0, len(environments))
	for _, env := range environments {
		names = append(names, string(env))
	}
	return fmt.Sprintf("%s %q: expected one of %s", ErrUnknownEnvironment, e.Name, strings.Join(names, ", "))
}

func (e *EnvironmentError) Unwrap() error {
	return ErrUnknownEnvironment
}

var environments = []Environment{Local, Test, Staging, Production}

// Environments returns every known environment in declaration order.
func Environments() []Environment {
	out := make([]Environment, len(environments))
	copy(out, environments)
	return out
}

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment matches name exactly against the known environments.
// Case and surrounding blanks are significant.
func ParseEnvironment(name string) (Environment, error) {
	candidate := Environment(name)
	for _, env := range environments {
		if env == candidate {
			return env, nil
		}
	}
	return "", &EnvironmentError{Name: name}
}

// EnvironmentFromEnv reads EnvVar from the process environment. Only an
// unset variable yields DefaultEnvironment; set but empty is rejected.
func EnvironmentFromEnv() (Environment, error) {
	name, ok := os.LookupEnv(EnvVar)
	if !ok {
		return DefaultEnvironment, nil
	}
	return ParseEnvironment(name)
}

// ProfileFor maps an environment to a freshly built profile.
func ProfileFor(env Environment) (*Config, error) {
	switch env {
	case Local:
		return LocalProfile(), nil
	case Test:
		return TestProfile(), nil
	case Staging:
		return StagingProfile(), nil
	case Production:
		return ProductionProfile(), nil
	default:
		return nil, &EnvironmentError{Name: string(env)}
	}
}

// Resolve turns an environment name into its profile.
func Resolve(name string) (*Config, error) {
	env, err := ParseEnvironment(name)
	if err != nil {
		return nil, err
	}
	return ProfileFor(env)
}
