package simulator

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
)

// Seed is the TOML-loadable initial inventory of a simulator instance.
type Seed struct {
	Zones           []state.Zone           `toml:"zones"`
	Domains         []state.Domain         `toml:"domains"`
	Accounts        []state.Account        `toml:"accounts"`
	Projects        []state.Project        `toml:"projects"`
	PublicIPs       []state.PublicIP       `toml:"public_ips"`
	VirtualMachines []state.VirtualMachine `toml:"virtual_machines"`
}

// LoadSeed reads a seed file from disk.
func LoadSeed(path string) (*Seed, error) {
	var seed Seed
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return nil, fmt.Errorf("decoding seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Apply writes the inventory into the store. Entries without an id get one
// assigned, so seed files only need names.
func (seed *Seed) Apply(ctx context.Context, store state.Store) error {
	for i := range seed.Zones {
		z := seed.Zones[i]
		if z.ID == "" {
			z.ID = uuid.New().String()
		}
		if err := store.CreateZone(ctx, &z); err != nil {
			return fmt.Errorf("seeding zone %s: %w", z.Name, err)
		}
	}
	for i := range seed.Domains {
		d := seed.Domains[i]
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		if d.Path == "" {
			d.Path = "ROOT/" + d.Name
		}
		if err := store.CreateDomain(ctx, &d); err != nil {
			return fmt.Errorf("seeding domain %s: %w", d.Name, err)
		}
	}
	for i := range seed.Accounts {
		a := seed.Accounts[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if err := store.CreateAccount(ctx, &a); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.Name, err)
		}
	}
	for i := range seed.Projects {
		p := seed.Projects[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if err := store.CreateProject(ctx, &p); err != nil {
			return fmt.Errorf("seeding project %s: %w", p.Name, err)
		}
	}
	for i := range seed.PublicIPs {
		ip := seed.PublicIPs[i]
		if ip.ID == "" {
			ip.ID = uuid.New().String()
		}
		if err := store.CreatePublicIP(ctx, &ip); err != nil {
			return fmt.Errorf("seeding public ip %s: %w", ip.Address, err)
		}
	}
	for i := range seed.VirtualMachines {
		vm := seed.VirtualMachines[i]
		if vm.ID == "" {
			vm.ID = uuid.New().String()
		}
		if vm.State == "" {
			vm.State = "Running"
		}
		if err := store.CreateVirtualMachine(ctx, &vm); err != nil {
			return fmt.Errorf("seeding virtual machine %s: %w", vm.Name, err)
		}
	}
	return nil
}
