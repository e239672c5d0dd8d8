package assembler

import (
	"fmt"
	"strings"

	"github.com/angeloszaimis/backup-config/internal/credentials"
	"github.com/angeloszaimis/backup-config/internal/discovery"
	"github.com/angeloszaimis/backup-config/internal/endpoints"
	"github.com/angeloszaimis/backup-config/internal/properties"
	"github.com/angeloszaimis/backup-config/internal/tlspolicy"
)

const (
	PropXtrabackupPath         = "xtrabackup_path"
	PropBackupServerPort       = "backup_server.port"
	PropBackupAllMasters       = "backup_all_masters"
	PropBackupFromInactiveNode = "backup_from_inactive_node"
	PropGaleraAgentPort        = "galera_agent_port"
	PropTmpDir                 = "tmp_dir"
	PropOutputDir              = "output_dir"
	PropSymmetricKey           = "symmetric_key"

	ServerJob = "streaming-mysql-backup-tool"
	ClientJob = "streaming-mysql-backup-client"

	DefaultsFile   = "/var/vcap/jobs/mysql/config/mylogin.cnf"
	XtrabackupDir  = "/var/vcap/store/xtrabackup_tmp/"
	ServerPidFile  = "/var/vcap/sys/run/" + ServerJob + "/" + ServerJob + ".pid"
	ServerBinary   = "/var/vcap/packages/" + ServerJob + "/bin/" + ServerJob
	ServerConfPath = "/var/vcap/jobs/" + ServerJob + "/config/" + ServerJob + ".yml"
	basePath       = "/bin:/usr/bin:/sbin:/usr/sbin"
)

// ClientInputs is everything the client role consumes from the backup-tool
// link: the discovered instances and the properties the server publishes.
type ClientInputs struct {
	Discovered     []discovery.Endpoint
	LinkProperties properties.Bag
}

// Assembler composes the resolvers into one document per role. It performs no
// validation of its own and returns the first sub-resolution error.
type Assembler struct {
	endpoints *endpoints.Resolver
}

func New(resolver *endpoints.Resolver) *Assembler {
	if resolver == nil {
		resolver = endpoints.NewResolver(nil)
	}
	return &Assembler{endpoints: resolver}
}

// BackupCommand is the streaming backup invocation the server runs per request.
func BackupCommand(xtrabackupPath string) string {
	return strings.Join([]string{
		xtrabackupPath + "/xtrabackup",
		"--defaults-file=" + DefaultsFile,
		"--backup",
		"--stream=tar",
		"--target-dir=" + XtrabackupDir,
	}, " ")
}

func (a *Assembler) Server(bag properties.Bag) (ServerConfig, error) {
	policy, err := tlspolicy.ResolveServer(bag)
	if err != nil {
		return ServerConfig{}, err
	}

	creds, err := credentials.Resolve(bag.Sub(credentials.Path), policy.Mutual())
	if err != nil {
		return ServerConfig{}, err
	}

	xtrabackupPath, err := bag.String(PropXtrabackupPath)
	if err != nil {
		return ServerConfig{}, err
	}

	port, err := bag.Int(PropBackupServerPort)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Command:     BackupCommand(xtrabackupPath),
		Port:        port,
		PidFile:     ServerPidFile,
		Credentials: creds,
		TLS:         serverTLS(policy),
		XtraBackup: XtraBackup{
			DefaultsFile: DefaultsFile,
			TmpDir:       XtrabackupDir,
		},
	}, nil
}

func (a *Assembler) Client(bag properties.Bag, in ClientInputs) (ClientConfig, error) {
	policy, err := tlspolicy.ResolveClient(bag)
	if err != nil {
		return ClientConfig{}, err
	}

	creds, err := credentials.Resolve(in.LinkProperties.Sub(credentials.Path), policy.Mutual())
	if err != nil {
		return ClientConfig{}, err
	}

	resolved, err := a.endpoints.Resolve(bag, in.Discovered)
	if err != nil {
		return ClientConfig{}, err
	}

	var (
		r   = reader{bag: bag}
		cfg = ClientConfig{
			Ips:         resolved.Addresses(),
			Instances:   resolved.Instances(),
			Credentials: creds,
			TLS:         clientTLS(policy),
		}
	)

	cfg.BackupServerPort = r.integer(PropBackupServerPort)
	cfg.BackupAllMasters = r.flag(PropBackupAllMasters)
	cfg.BackupFromInactiveNode = r.flag(PropBackupFromInactiveNode)
	cfg.GaleraAgentPort = r.integer(PropGaleraAgentPort)
	cfg.TmpDir = r.str(PropTmpDir)
	cfg.OutputDir = r.str(PropOutputDir)
	cfg.SymmetricKey = r.secret(PropSymmetricKey)

	if r.err != nil {
		return ClientConfig{}, r.err
	}

	backend, err := tlspolicy.ResolveBackend(bag)
	if err != nil {
		return ClientConfig{}, err
	}
	cfg.BackendTLS = BackendTLS(backend)

	return cfg, nil
}

// ProcessManifest puts the configured xtrabackup binaries on the server's PATH.
func (a *Assembler) ProcessManifest(bag properties.Bag) (ProcessManifest, error) {
	xtrabackupPath, err := bag.String(PropXtrabackupPath)
	if err != nil {
		return ProcessManifest{}, err
	}

	return ProcessManifest{
		Processes: []Process{
			{
				Name:       ServerJob,
				Executable: ServerBinary,
				Args:       []string{"-configPath=" + ServerConfPath},
				Env: map[string]string{
					"PATH": fmt.Sprintf("%s:%s/xtrabackup/bin", basePath, xtrabackupPath),
				},
			},
		},
	}, nil
}

func serverTLS(policy tlspolicy.ServerPolicy) ServerTLS {
	switch p := policy.(type) {
	case tlspolicy.ServerMutual:
		return ServerTLS{
			EnableMutualTLS:          true,
			ServerCert:               p.ServerCert,
			ServerKey:                p.ServerKey,
			ServerName:               p.ServerName,
			ClientCA:                 p.ClientCA,
			RequiredClientIdentities: append([]string(nil), p.RequiredClientIdentities...),
		}
	case tlspolicy.ServerOnly:
		return ServerTLS{
			ServerCert: p.ServerCert,
			ServerKey:  p.ServerKey,
			ServerName: p.ServerName,
		}
	default:
		panic(fmt.Sprintf("unknown server TLS policy %T", policy))
	}
}

func clientTLS(policy tlspolicy.ClientPolicy) ClientTLS {
	switch p := policy.(type) {
	case tlspolicy.ClientMutual:
		return ClientTLS{
			EnableMutualTLS: true,
			ServerCACert:    p.ServerCACert,
			ServerName:      p.ServerName,
			ClientCert:      p.ClientCert,
			ClientKey:       p.ClientKey,
		}
	case tlspolicy.ClientServerOnly:
		return ClientTLS{
			ServerCACert: p.ServerCACert,
			ServerName:   p.ServerName,
		}
	default:
		panic(fmt.Sprintf("unknown client TLS policy %T", policy))
	}
}

type reader struct {
	bag properties.Bag
	err error
}

func (r *reader) str(path string) string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.err = r.bag.String(path)
	return s
}

func (r *reader) secret(path string) string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.err = r.bag.NonEmptyString(path)
	return s
}

func (r *reader) flag(path string) bool {
	if r.err != nil {
		return false
	}
	var b bool
	b, r.err = r.bag.Bool(path)
	return b
}

func (r *reader) integer(path string) int {
	if r.err != nil {
		return 0
	}
	var n int
	n, r.err = r.bag.Int(path)
	return n
}
