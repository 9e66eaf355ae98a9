package apix

import (
	"fmt"
	"strings"

	"github.com/rezonia/finvoice-apix/internal/model"
)

// Environment selects the Apix endpoint family
type Environment string

const (
	EnvironmentTest       Environment = "test"
	EnvironmentProduction Environment = "production"
)

// Endpoints are the three Apix URLs used by the client
type Endpoints struct {
	Invoices string
	List     string
	Download string
}

var endpoints = map[Environment]Endpoints{
	EnvironmentTest: {
		Invoices: "https://test-api.apix.fi/invoices",
		List:     "https://test-terminal.apix.fi/list2",
		Download: "https://test-terminal.apix.fi/download",
	},
	EnvironmentProduction: {
		Invoices: "https://api.apix.fi/invoices",
		List:     "https://terminal.apix.fi/list2",
		Download: "https://terminal.apix.fi/download",
	},
}

// ParseEnvironment validates an environment name. Empty means production.
func ParseEnvironment(s string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case "":
		return EnvironmentProduction, nil
	case EnvironmentTest, EnvironmentProduction:
		return env, nil
	default:
		return "", model.NewValidationError("apix.environment", fmt.Sprintf("unknown Apix environment %q (want test or production)", s))
	}
}

// Endpoints returns the URLs of the environment
func (e Environment) Endpoints() Endpoints {
	if ep, ok := endpoints[e]; ok {
		return ep
	}
	return endpoints[EnvironmentProduction]
}

// NewEndpoints builds endpoints rooted at a single base URL, as served by a local stand-in
func NewEndpoints(baseURL string) Endpoints {
	base := strings.TrimRight(baseURL, "/")
	return Endpoints{
		Invoices: base + "/invoices",
		List:     base + "/list2",
		Download: base + "/download",
	}
}
