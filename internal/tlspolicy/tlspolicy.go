package tlspolicy

import (
	"github.com/angeloszaimis/backup-config/internal/properties"
)

const (
	PropEnableMutualTLS   = "enable_mutual_tls"
	PropCACertificate     = "tls.ca_certificate"
	PropClientCA          = "tls.client_ca"
	PropServerCertificate = "tls.server_certificate"
	PropServerKey         = "tls.server_key"
	PropClientCertificate = "tls.client_certificate"
	PropClientKey         = "tls.client_key"
	PropClientHostnames   = "tls.client_hostnames"
	PropServerName        = "tls.server_name"
)

// ServerPolicy is the TLS mode of the backup server: ServerOnly or ServerMutual.
type ServerPolicy interface {
	Mutual() bool
	serverPolicy()
}

// ClientPolicy is the TLS mode of the backup client: ClientServerOnly or ClientMutual.
type ClientPolicy interface {
	Mutual() bool
	clientPolicy()
}

// ServerOnly authenticates the server only; callers fall back to basic auth.
type ServerOnly struct {
	ServerCert string
	ServerKey  string
	ServerName string
}

func (ServerOnly) Mutual() bool  { return false }
func (ServerOnly) serverPolicy() {}

// ServerMutual requires clients to present a certificate signed by ClientCA.
// An empty RequiredClientIdentities accepts any client the CA vouches for.
type ServerMutual struct {
	ServerCert               string
	ServerKey                string
	ServerName               string
	ClientCA                 string
	RequiredClientIdentities []string
}

func (ServerMutual) Mutual() bool  { return true }
func (ServerMutual) serverPolicy() {}

type ClientServerOnly struct {
	ServerCACert string
	ServerName   string
}

func (ClientServerOnly) Mutual() bool  { return false }
func (ClientServerOnly) clientPolicy() {}

type ClientMutual struct {
	ServerCACert string
	ServerName   string
	ClientCert   string
	ClientKey    string
}

func (ClientMutual) Mutual() bool  { return true }
func (ClientMutual) clientPolicy() {}

// ResolveServer decides the server TLS mode and checks that every property the
// mode needs is present. The first missing property is reported.
func ResolveServer(bag properties.Bag) (ServerPolicy, error) {
	mutual, err := bag.Bool(PropEnableMutualTLS)
	if err != nil {
		return nil, err
	}

	var (
		r          = reader{bag: bag}
		clientCA   string
		hostnames  []string
		serverCert string
		serverKey  string
		serverName string
	)

	if mutual {
		clientCA = r.str(PropClientCA)
	}
	serverCert = r.str(PropServerCertificate)
	serverKey = r.str(PropServerKey)
	if mutual {
		hostnames = r.list(PropClientHostnames)
	}
	serverName = r.str(PropServerName)

	if r.err != nil {
		return nil, r.err
	}

	if !mutual {
		return ServerOnly{
			ServerCert: serverCert,
			ServerKey:  serverKey,
			ServerName: serverName,
		}, nil
	}

	return ServerMutual{
		ServerCert:               serverCert,
		ServerKey:                serverKey,
		ServerName:               serverName,
		ClientCA:                 clientCA,
		RequiredClientIdentities: hostnames,
	}, nil
}

// ResolveClient decides the client TLS mode. Both modes verify the server
// against ServerCACert; the mutual mode also needs the client key pair.
func ResolveClient(bag properties.Bag) (ClientPolicy, error) {
	mutual, err := bag.Bool(PropEnableMutualTLS)
	if err != nil {
		return nil, err
	}

	var (
		r          = reader{bag: bag}
		clientCert string
		clientKey  string
	)

	caCert := r.str(PropCACertificate)
	if mutual {
		clientCert = r.str(PropClientCertificate)
		clientKey = r.str(PropClientKey)
	}
	serverName := r.str(PropServerName)

	if r.err != nil {
		return nil, r.err
	}

	if !mutual {
		return ClientServerOnly{
			ServerCACert: caCert,
			ServerName:   serverName,
		}, nil
	}

	return ClientMutual{
		ServerCACert: caCert,
		ServerName:   serverName,
		ClientCert:   clientCert,
		ClientKey:    clientKey,
	}, nil
}

// reader keeps the first lookup error and skips every lookup after it. Empty
// strings count as missing.
type reader struct {
	bag properties.Bag
	err error
}

func (r *reader) str(path string) string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.err = r.bag.NonEmptyString(path)
	return s
}

func (r *reader) list(path string) []string {
	if r.err != nil {
		return nil
	}
	opt, err := r.bag.OptionalStringList(path)
	if err != nil {
		r.err = err
		return nil
	}
	if len(opt.Value) == 0 {
		return nil
	}
	return opt.Value
}
