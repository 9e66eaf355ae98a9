package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/rezonia/finvoice-apix/internal/finvoice"
	"github.com/rezonia/finvoice-apix/internal/model"
)

var lookupColumns = map[finvoice.LookupKey]string{
	finvoice.LookupOVT:      "ovt",
	finvoice.LookupRegistry: "company_registry",
	finvoice.LookupVAT:      "vat",
}

func lookupColumn(key finvoice.LookupKey) (string, error) {
	col, ok := lookupColumns[key]
	if !ok {
		return "", fmt.Errorf("unknown lookup key %q", key)
	}
	return col, nil
}

// SaveCompany inserts or replaces a company. An empty ID is assigned.
func (s *SQLite) SaveCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	party, err := json.Marshal(c.Party)
	if err != nil {
		return fmt.Errorf("failed to encode company party: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, ovt, company_registry, vat, party, transfer_id, transfer_key, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, ovt = excluded.ovt, company_registry = excluded.company_registry,
			vat = excluded.vat, party = excluded.party, transfer_id = excluded.transfer_id,
			transfer_key = excluded.transfer_key, currency = excluded.currency
	`, c.ID, c.Party.Name, c.Party.OrganisationUnitNumber, c.Party.CompanyRegistry, c.Party.VAT,
		string(party), c.Credentials.TransferID, c.Credentials.TransferKey, c.Currency)
	if err != nil {
		s.logger.Error("Failed to save company", zap.String("company_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

const companyColumns = "id, party, transfer_id, transfer_key, currency"

func scanCompany(row interface{ Scan(...any) error }) (model.Company, error) {
	var c model.Company
	var party string
	if err := row.Scan(&c.ID, &party, &c.Credentials.TransferID, &c.Credentials.TransferKey, &c.Currency); err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(party), &c.Party); err != nil {
		return c, fmt.Errorf("failed to decode company %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *SQLite) queryCompanies(ctx context.Context, query string, args ...any) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Company returns the company with the given id
func (s *SQLite) Company(ctx context.Context, id string) (model.Company, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = ?", id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("company %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// Companies returns every company in insertion order
func (s *SQLite) Companies(ctx context.Context) ([]model.Company, error) {
	return s.queryCompanies(ctx, "SELECT "+companyColumns+" FROM companies ORDER BY rowid")
}

// ConfiguredCompanies returns every company with both Apix credentials set
func (s *SQLite) ConfiguredCompanies(ctx context.Context) ([]model.Company, error) {
	return s.queryCompanies(ctx, "SELECT "+companyColumns+
		" FROM companies WHERE transfer_id != '' AND transfer_key != '' ORDER BY rowid")
}

// FindCompanies returns companies whose identifier matches value
func (s *SQLite) FindCompanies(ctx context.Context, key finvoice.LookupKey, value string) ([]model.Company, error) {
	col, err := lookupColumn(key)
	if err != nil {
		return nil, err
	}
	return s.queryCompanies(ctx, "SELECT "+companyColumns+" FROM companies WHERE "+col+" = ? AND "+col+" != '' ORDER BY rowid", value)
}

// SavePartner inserts or replaces a partner. An empty ID is assigned.
func (s *SQLite) SavePartner(ctx context.Context, p *model.Partner) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	party, err := json.Marshal(p.Party)
	if err != nil {
		return fmt.Errorf("failed to encode partner party: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO partners (id, name, ovt, company_registry, vat, party)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, ovt = excluded.ovt, company_registry = excluded.company_registry,
			vat = excluded.vat, party = excluded.party
	`, p.ID, p.Party.Name, p.Party.OrganisationUnitNumber, p.Party.CompanyRegistry, p.Party.VAT, string(party))
	if err != nil {
		return fmt.Errorf("failed to save partner: %w", err)
	}
	return nil
}

// FindPartners returns partners whose identifier matches value
func (s *SQLite) FindPartners(ctx context.Context, key finvoice.LookupKey, value string) ([]model.Partner, error) {
	col, err := lookupColumn(key)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, party FROM partners WHERE "+col+" = ? AND "+col+" != '' ORDER BY rowid", value)
	if err != nil {
		return nil, fmt.Errorf("failed to query partners: %w", err)
	}
	defer rows.Close()

	var out []model.Partner
	for rows.Next() {
		var p model.Partner
		var party string
		if err := rows.Scan(&p.ID, &party); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(party), &p.Party); err != nil {
			return nil, fmt.Errorf("failed to decode partner %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveTax inserts or replaces a tax of a company
func (s *SQLite) SaveTax(ctx context.Context, companyID string, t *model.Tax) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.AmountType == "" {
		t.AmountType = model.AmountTypePercent
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taxes (id, company_id, name, amount_type, percent, direction, sequence)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COUNT(*) FROM taxes WHERE company_id = ?))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, amount_type = excluded.amount_type,
			percent = excluded.percent, direction = excluded.direction
	`, t.ID, companyID, t.Name, t.AmountType, t.Percent.String(), string(t.Direction), companyID)
	if err != nil {
		return fmt.Errorf("failed to save tax: %w", err)
	}
	return nil
}

// FindTaxes returns the percent taxes of a company with the given rate and direction
func (s *SQLite) FindTaxes(ctx context.Context, companyID string, percent decimal.Decimal, direction model.Direction) ([]model.Tax, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount_type, percent, direction FROM taxes
		WHERE company_id = ? AND direction = ? AND amount_type = ?
		ORDER BY sequence, rowid
	`, companyID, string(direction), model.AmountTypePercent)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxes: %w", err)
	}
	defer rows.Close()

	var out []model.Tax
	for rows.Next() {
		var t model.Tax
		var rate, dir string
		if err := rows.Scan(&t.ID, &t.Name, &t.AmountType, &rate, &dir); err != nil {
			return nil, err
		}
		t.Direction = model.Direction(dir)
		if t.Percent, err = decimal.NewFromString(rate); err != nil {
			s.logger.Warn("Skipping tax with malformed rate", zap.String("tax_id", t.ID), zap.Error(err))
			continue
		}
		// "24" and "24.0" are the same rate
		if t.Percent.Equal(percent) {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

// SetCurrencyActive enables or disables an ISO 4217 currency
func (s *SQLite) SetCurrencyActive(ctx context.Context, code string, active bool) error {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return model.NewValidationError("currency", fmt.Sprintf("%q is not an ISO 4217 currency", code))
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO currencies (code, active) VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET active = excluded.active
	`, unit.String(), active)
	if err != nil {
		return fmt.Errorf("failed to update currency: %w", err)
	}
	return nil
}

// IsCurrencyActive reports whether code is a known ISO 4217 currency enabled here
func (s *SQLite) IsCurrencyActive(ctx context.Context, code string) (bool, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return false, nil
	}

	var active bool
	err = s.db.QueryRowContext(ctx, "SELECT active FROM currencies WHERE code = ?", unit.String()).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query currency: %w", err)
	}
	return active, nil
}
