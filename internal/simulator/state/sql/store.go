// Package sql is the database-backed Store used by cs-sim when simulator
// state should survive restarts. It supports sqlite3 for local use and
// postgres for shared setups.
package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements state.Store on a SQL database.
type Store struct {
	db *sqlx.DB
}

var _ state.Store = (*Store)(nil)

// New connects and runs pending migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateZone(ctx context.Context, z *state.Zone) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO zones (id, name) VALUES ($1, $2)`, z.ID, z.Name)
	return err
}

func (s *Store) ListZones(ctx context.Context, name string) ([]*state.Zone, error) {
	query := `SELECT id, name FROM zones`
	args := []any{}
	if name != "" {
		query += ` WHERE lower(name) = lower($1)`
		args = append(args, name)
	}
	query += ` ORDER BY name`
	var zones []*state.Zone
	if err := s.db.SelectContext(ctx, &zones, query, args...); err != nil {
		return nil, err
	}
	return zones, nil
}

func (s *Store) CreateDomain(ctx context.Context, d *state.Domain) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO domains (id, name, path) VALUES ($1, $2, $3)`, d.ID, d.Name, d.Path)
	return err
}

func (s *Store) ListDomains(ctx context.Context) ([]*state.Domain, error) {
	var domains []*state.Domain
	err := s.db.SelectContext(ctx, &domains,
		`SELECT id, name, path FROM domains ORDER BY path`)
	if err != nil {
		return nil, err
	}
	return domains, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *state.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, domain_id) VALUES ($1, $2, $3)`,
		a.ID, a.Name, a.DomainID)
	return err
}

func (s *Store) ListAccounts(ctx context.Context, name, domainID string) ([]*state.Account, error) {
	query := `SELECT id, name, domain_id FROM accounts`
	var where []string
	var args []any
	if name != "" {
		args = append(args, name)
		where = append(where, fmt.Sprintf("lower(name) = lower($%d)", len(args)))
	}
	if domainID != "" {
		args = append(args, domainID)
		where = append(where, fmt.Sprintf("domain_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"
	var accounts []*state.Account
	if err := s.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) CreateProject(ctx context.Context, p *state.Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name) VALUES ($1, $2)`, p.ID, p.Name)
	return err
}

func (s *Store) ListProjects(ctx context.Context) ([]*state.Project, error) {
	var projects []*state.Project
	err := s.db.SelectContext(ctx, &projects,
		`SELECT id, name FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Store) CreatePublicIP(ctx context.Context, ip *state.PublicIP) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO public_ips (id, address, account, domain_id, project_id, zone_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ip.ID, ip.Address, ip.Account, ip.DomainID, ip.ProjectID, ip.ZoneID)
	return err
}

func (s *Store) ListPublicIPs(ctx context.Context, f state.IPFilter) ([]*state.PublicIP, error) {
	query := `SELECT id, address, account, domain_id, project_id, zone_id FROM public_ips`
	var where []string
	var args []any
	if f.Address != "" {
		args = append(args, f.Address)
		where = append(where, fmt.Sprintf("address = $%d", len(args)))
	}
	if f.Account != "" {
		args = append(args, f.Account)
		where = append(where, fmt.Sprintf("lower(account) = lower($%d)", len(args)))
	}
	if f.DomainID != "" {
		args = append(args, f.DomainID)
		where = append(where, fmt.Sprintf("domain_id = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY address"
	var ips []*state.PublicIP
	if err := s.db.SelectContext(ctx, &ips, query, args...); err != nil {
		return nil, err
	}
	return ips, nil
}

func (s *Store) CreateVirtualMachine(ctx context.Context, vm *state.VirtualMachine) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO virtual_machines (id, name, account, domain_id, project_id, zone_id, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		vm.ID, vm.Name, vm.Account, vm.DomainID, vm.ProjectID, vm.ZoneID, vm.State)
	return err
}

func (s *Store) ListVirtualMachines(ctx context.Context, f state.VMFilter) ([]*state.VirtualMachine, error) {
	query := `SELECT id, name, account, domain_id, project_id, zone_id, state FROM virtual_machines`
	var where []string
	var args []any
	if f.Account != "" {
		args = append(args, f.Account)
		where = append(where, fmt.Sprintf("lower(account) = lower($%d)", len(args)))
	}
	if f.DomainID != "" {
		args = append(args, f.DomainID)
		where = append(where, fmt.Sprintf("domain_id = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"
	var vms []*state.VirtualMachine
	if err := s.db.SelectContext(ctx, &vms, query, args...); err != nil {
		return nil, err
	}
	return vms, nil
}

func (s *Store) CreateRule(ctx context.Context, r *state.LoadBalancerRule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lb_rules
		 (id, name, description, algorithm, protocol, cidr, public_ip_id,
		  public_port, private_port, account, domain_id, project_id, zone_id, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.Name, r.Description, r.Algorithm, r.Protocol, r.Cidr, r.PublicIPID,
		r.PublicPort, r.PrivatePort, r.Account, r.DomainID, r.ProjectID, r.ZoneID, r.State)
	return err
}

const ruleColumns = `id, name, description, algorithm, protocol, cidr, public_ip_id,
	public_port, private_port, account, domain_id, project_id, zone_id, state`

func (s *Store) GetRule(ctx context.Context, id string) (*state.LoadBalancerRule, error) {
	var rule state.LoadBalancerRule
	err := s.db.GetContext(ctx, &rule,
		`SELECT `+ruleColumns+` FROM lb_rules WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Store) ListRules(ctx context.Context, f state.RuleFilter) ([]*state.LoadBalancerRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM lb_rules`
	var where []string
	var args []any
	if f.Name != "" {
		args = append(args, f.Name)
		where = append(where, fmt.Sprintf("lower(name) = lower($%d)", len(args)))
	}
	if f.Account != "" {
		args = append(args, f.Account)
		where = append(where, fmt.Sprintf("lower(account) = lower($%d)", len(args)))
	}
	if f.DomainID != "" {
		args = append(args, f.DomainID)
		where = append(where, fmt.Sprintf("domain_id = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if f.ZoneID != "" {
		args = append(args, f.ZoneID)
		where = append(where, fmt.Sprintf("zone_id = $%d", len(args)))
	}
	if f.PublicIPID != "" {
		args = append(args, f.PublicIPID)
		where = append(where, fmt.Sprintf("public_ip_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"
	var rules []*state.LoadBalancerRule
	if err := s.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	if _, err := s.GetRule(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM lb_rule_members WHERE rule_id = $1`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM lb_rules WHERE id = $1`, id)
	return err
}

func (s *Store) ListRuleMembers(ctx context.Context, ruleID string) ([]*state.VirtualMachine, error) {
	if _, err := s.GetRule(ctx, ruleID); err != nil {
		return nil, err
	}
	var vms []*state.VirtualMachine
	err := s.db.SelectContext(ctx, &vms,
		`SELECT vm.id, vm.name, vm.account, vm.domain_id, vm.project_id, vm.zone_id, vm.state
		 FROM virtual_machines vm
		 JOIN lb_rule_members m ON m.vm_id = vm.id
		 WHERE m.rule_id = $1
		 ORDER BY vm.name`, ruleID)
	if err != nil {
		return nil, err
	}
	return vms, nil
}

func (s *Store) AssignMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	if _, err := s.GetRule(ctx, ruleID); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, vmID := range vmIDs {
		var n int
		if err := tx.GetContext(ctx, &n,
			`SELECT count(*) FROM virtual_machines WHERE id = $1`, vmID); err != nil {
			return err
		}
		if n == 0 {
			return state.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lb_rule_members (rule_id, vm_id) VALUES ($1, $2)
			 ON CONFLICT (rule_id, vm_id) DO NOTHING`, ruleID, vmID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) RemoveMembers(ctx context.Context, ruleID string, vmIDs []string) error {
	if _, err := s.GetRule(ctx, ruleID); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, vmID := range vmIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM lb_rule_members WHERE rule_id = $1 AND vm_id = $2`,
			ruleID, vmID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
