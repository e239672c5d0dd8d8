package properties

const (
	DefaultXtrabackupPath  = "/var/vcap/packages/percona-xtrabackup-8.0"
	DefaultBackupPort      = 8081
	DefaultGaleraAgentPort = 9201
	DefaultTmpDir          = "/var/vcap/data/mysql-backups-tmp"
	DefaultOutputDir       = "/var/vcap/store/mysql-backups"
)

// JobDefaults returns the defaults table shared by the backup server and
// client jobs. Every optional job property is listed here; lookups never
// invent a value that is not in this table.
func JobDefaults() Defaults {
	return Defaults{
		"enable_mutual_tls":                     BoolValue(false),
		"backup_local_node_only":                BoolValue(false),
		"tls.client_hostnames":                  StringListValue(),
		"xtrabackup_path":                       StringValue(DefaultXtrabackupPath),
		"backup_server.port":                    IntValue(DefaultBackupPort),
		"backup_all_masters":                    BoolValue(false),
		"backup_from_inactive_node":             BoolValue(false),
		"galera_agent_port":                     IntValue(DefaultGaleraAgentPort),
		"galera_agent.tls.enabled":              BoolValue(false),
		"galera_agent.tls.insecure_skip_verify": BoolValue(false),
		"tmp_dir":                               StringValue(DefaultTmpDir),
		"output_dir":                            StringValue(DefaultOutputDir),
	}
}
