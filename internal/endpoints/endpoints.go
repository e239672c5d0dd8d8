package endpoints

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/angeloszaimis/backup-config/internal/discovery"
	"github.com/angeloszaimis/backup-config/internal/properties"
)

const (
	PropBackupIPs           = "backup_ips"
	PropClusterIPs          = "cluster_ips"
	PropBackupLocalNodeOnly = "backup_local_node_only"

	LocalAddress = "127.0.0.1"
	// LocalUUID stands in for the instance id of the loopback endpoint.
	LocalUUID = "xxxxxx-xxxxxxxx-xxxxx"
)

var ErrNoEndpoints = errors.New("no backup server endpoints: set backup_ips, backup_local_node_only or provide discovered instances")

type Source int

const (
	SourceOverride Source = iota
	SourceLocalNode
	SourceDiscovery
)

func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceLocalNode:
		return "local-node"
	default:
		return "discovery"
	}
}

// Instance is the identified view of an endpoint.
type Instance struct {
	Address string `yaml:"Address"`
	UUID    string `yaml:"UUID"`
}

// Resolved is the ordered endpoint list the client will back up from.
type Resolved struct {
	source    Source
	endpoints []discovery.Endpoint
}

func (r Resolved) Source() Source { return r.source }

func (r Resolved) Len() int { return len(r.endpoints) }

// Addresses projects the bare addresses, in order.
func (r Resolved) Addresses() []string {
	out := make([]string, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep.Address)
	}
	return out
}

// Instances projects address/identifier pairs, in order. Override addresses
// carry an empty UUID.
func (r Resolved) Instances() []Instance {
	out := make([]Instance, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, Instance{Address: ep.Address, UUID: ep.ID})
	}
	return out
}

type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve applies the precedence override > local node only > discovery.
// An empty result is an error.
func (r *Resolver) Resolve(bag properties.Bag, discovered []discovery.Endpoint) (Resolved, error) {
	override, err := r.override(bag)
	if err != nil {
		return Resolved{}, err
	}
	if len(override) > 0 {
		eps := make([]discovery.Endpoint, 0, len(override))
		for _, addr := range override {
			eps = append(eps, discovery.Endpoint{Address: addr})
		}
		return Resolved{source: SourceOverride, endpoints: eps}, nil
	}

	localOnly, err := bag.Bool(PropBackupLocalNodeOnly)
	if err != nil {
		return Resolved{}, err
	}
	if localOnly {
		return Resolved{
			source:    SourceLocalNode,
			endpoints: []discovery.Endpoint{{Address: LocalAddress, ID: LocalUUID}},
		}, nil
	}

	if len(discovered) == 0 {
		return Resolved{}, ErrNoEndpoints
	}

	return Resolved{source: SourceDiscovery, endpoints: slices.Clone(discovered)}, nil
}

func (r *Resolver) override(bag properties.Bag) ([]string, error) {
	backupIPs, err := bag.OptionalStringList(PropBackupIPs)
	if err != nil {
		return nil, err
	}
	clusterIPs, err := bag.OptionalStringList(PropClusterIPs)
	if err != nil {
		return nil, err
	}

	if len(backupIPs.Value) > 0 {
		if len(clusterIPs.Value) > 0 && !slices.Equal(backupIPs.Value, clusterIPs.Value) {
			r.logger.Warn("backup_ips and cluster_ips differ, using backup_ips",
				slog.Any("backup_ips", backupIPs.Value),
				slog.Any("cluster_ips", clusterIPs.Value))
		}
		return backupIPs.Value, nil
	}

	return clusterIPs.Value, nil
}
