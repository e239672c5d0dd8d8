package assembler

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/backup-config/internal/credentials"
	"github.com/angeloszaimis/backup-config/internal/endpoints"
)

// ServerConfig is the document read by streaming-mysql-backup-tool.
type ServerConfig struct {
	Command     string                  `yaml:"Command"`
	Port        int                     `yaml:"Port"`
	PidFile     string                  `yaml:"PidFile"`
	Credentials credentials.Credentials `yaml:"Credentials"`
	TLS         ServerTLS               `yaml:"TLS"`
	XtraBackup  XtraBackup              `yaml:"XtraBackup"`
}

// ServerTLS omits the mutual-only fields entirely when they are unset.
type ServerTLS struct {
	EnableMutualTLS          bool     `yaml:"EnableMutualTLS"`
	ServerCert               string   `yaml:"ServerCert"`
	ServerKey                string   `yaml:"ServerKey"`
	ServerName               string   `yaml:"ServerName"`
	ClientCA                 string   `yaml:"ClientCA,omitempty"`
	RequiredClientIdentities []string `yaml:"RequiredClientIdentities,omitempty"`
}

type XtraBackup struct {
	DefaultsFile string `yaml:"DefaultsFile"`
	TmpDir       string `yaml:"TmpDir"`
}

// ClientConfig is the document read by streaming-mysql-backup-client.
type ClientConfig struct {
	Ips                    []string                `yaml:"Ips"`
	Instances              []endpoints.Instance    `yaml:"Instances"`
	BackupServerPort       int                     `yaml:"BackupServerPort"`
	BackupAllMasters       bool                    `yaml:"BackupAllMasters"`
	BackupFromInactiveNode bool                    `yaml:"BackupFromInactiveNode"`
	GaleraAgentPort        int                     `yaml:"GaleraAgentPort"`
	Credentials            credentials.Credentials `yaml:"Credentials"`
	TmpDir                 string                  `yaml:"TmpDir"`
	OutputDir              string                  `yaml:"OutputDir"`
	SymmetricKey           string                  `yaml:"SymmetricKey"`
	TLS                    ClientTLS               `yaml:"TLS"`
	BackendTLS             BackendTLS              `yaml:"BackendTLS"`
}

type ClientTLS struct {
	EnableMutualTLS bool   `yaml:"EnableMutualTLS"`
	ServerCACert    string `yaml:"ServerCACert"`
	ServerName      string `yaml:"ServerName"`
	ClientCert      string `yaml:"ClientCert,omitempty"`
	ClientKey       string `yaml:"ClientKey,omitempty"`
}

// BackendTLS configures the client's connections to the galera agent.
type BackendTLS struct {
	Enabled            bool   `yaml:"Enabled"`
	ServerName         string `yaml:"ServerName"`
	CA                 string `yaml:"CA"`
	InsecureSkipVerify bool   `yaml:"InsecureSkipVerify"`
}

// ProcessManifest is the process supervisor (bpm) definition of the server job.
type ProcessManifest struct {
	Processes []Process `yaml:"processes"`
}

type Process struct {
	Name       string            `yaml:"name"`
	Executable string            `yaml:"executable"`
	Args       []string          `yaml:"args,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
}

// Marshal renders a document as YAML with two-space indentation.
func Marshal(doc any) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", doc, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", doc, err)
	}

	return buf.Bytes(), nil
}

// Unmarshal parses a rendered document back into its typed form.
func Unmarshal[T ServerConfig | ClientConfig | ProcessManifest](data []byte) (T, error) {
	var doc T
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decoding %T: %w", doc, err)
	}
	return doc, nil
}
