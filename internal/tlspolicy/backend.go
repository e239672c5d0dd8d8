package tlspolicy

import (
	"github.com/angeloszaimis/backup-config/internal/properties"
)

const (
	PropBackendTLSEnabled            = "galera_agent.tls.enabled"
	PropBackendTLSCA                 = "galera_agent.tls.ca"
	PropBackendTLSServerName         = "galera_agent.tls.server_name"
	PropBackendTLSInsecureSkipVerify = "galera_agent.tls.insecure_skip_verify"
)

// Backend is the transport of the client's calls to the galera agent on each
// backup node. When disabled the agent is called over plain HTTP and none of
// the TLS properties are read.
type Backend struct {
	Enabled            bool
	ServerName         string
	CA                 string
	InsecureSkipVerify bool
}

// ResolveBackend reads the galera agent TLS settings. Enabling TLS requires a
// CA and a server name.
func ResolveBackend(bag properties.Bag) (Backend, error) {
	enabled, err := bag.Bool(PropBackendTLSEnabled)
	if err != nil {
		return Backend{}, err
	}
	if !enabled {
		return Backend{}, nil
	}

	r := reader{bag: bag}
	ca := r.str(PropBackendTLSCA)
	serverName := r.str(PropBackendTLSServerName)
	if r.err != nil {
		return Backend{}, r.err
	}

	insecure, err := bag.Bool(PropBackendTLSInsecureSkipVerify)
	if err != nil {
		return Backend{}, err
	}

	return Backend{
		Enabled:            true,
		ServerName:         serverName,
		CA:                 ca,
		InsecureSkipVerify: insecure,
	}, nil
}
