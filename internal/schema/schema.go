// Package schema owns the bootstrap DDL for the terminal laboratory store.
// Statements are ordered leaves-first and written to be idempotent so Apply
// can run on every start. Enum vocabularies only ever grow: values appended
// over the life of the product (weight, api, percent_pv, relative_humidity,
// needs_review) are added with ADD VALUE IF NOT EXISTS and never removed.
package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// enumTypes are created once; additions go through enumAdditions.
var enumTypes = []struct {
	name   string
	values string
}{
	{"user_role", "'superadmin','admin','user','visitor'"},
	{"company_type", "'client','partner'"},
	{"equipment_role", "'reference','working'"},
	{"equipment_status", "'stored','in_use','maintenance','lost','disposed','unknown'"},
	{"measure_type", "'temperature','pressure','length'"},
	{"response_type", "'boolean','text','number'"},
	{"mass_unit", "'g','kg','mg','lb'"},
}

// enumAdditions mirrors the additive vocabulary history.
var enumAdditions = []struct {
	enum  string
	value string
}{
	{"measure_type", "weight"},
	{"measure_type", "api"},
	{"measure_type", "percent_pv"},
	{"measure_type", "relative_humidity"},
	{"equipment_status", "needs_review"},
}

var tables = []string{
	`CREATE EXTENSION IF NOT EXISTS citext`,

	`CREATE TABLE IF NOT EXISTS companies (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  company_type company_type NOT NULL DEFAULT 'client',
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  last_name TEXT NOT NULL DEFAULT '',
  email CITEXT NOT NULL UNIQUE,
  role user_role NOT NULL DEFAULT 'user',
  photo_url TEXT,
  password_hash TEXT NOT NULL,
  refresh_token_hash TEXT,
  must_change_password BOOLEAN NOT NULL DEFAULT false,
  is_active BOOLEAN NOT NULL DEFAULT true,
  company_id BIGINT REFERENCES companies(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_users_refresh_token_hash ON users(refresh_token_hash)`,

	`CREATE TABLE IF NOT EXISTS company_terminals (
  id BIGSERIAL PRIMARY KEY,
  company_id BIGINT NOT NULL REFERENCES companies(id),
  name TEXT NOT NULL,
  terminal_code TEXT CHECK (terminal_code IS NULL OR terminal_code ~ '^[A-Z0-9]{3,4}$'),
  has_lab BOOLEAN NOT NULL DEFAULT false,
  lab_terminal_id BIGINT REFERENCES company_terminals(id),
  next_sample_sequence BIGINT NOT NULL DEFAULT 1 CHECK (next_sample_sequence >= 1),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (company_id, terminal_code)
)`,

	`CREATE TABLE IF NOT EXISTS user_terminals (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  terminal_id BIGINT NOT NULL REFERENCES company_terminals(id),
  UNIQUE (user_id, terminal_id)
)`,

	`CREATE TABLE IF NOT EXISTS company_blocks (
  id BIGSERIAL PRIMARY KEY,
  company_id BIGINT NOT NULL REFERENCES companies(id),
  name TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS equipment_types (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  role equipment_role NOT NULL DEFAULT 'working',
  observations TEXT,
  inspection_days INT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (name, role)
)`,

	`CREATE TABLE IF NOT EXISTS equipment_type_measures (
  id BIGSERIAL PRIMARY KEY,
  equipment_type_id BIGINT NOT NULL REFERENCES equipment_types(id),
  measure measure_type NOT NULL,
  UNIQUE (equipment_type_id, measure)
)`,

	`CREATE TABLE IF NOT EXISTS equipment_type_max_errors (
  id BIGSERIAL PRIMARY KEY,
  equipment_type_id BIGINT NOT NULL REFERENCES equipment_types(id),
  measure measure_type NOT NULL,
  max_error_value NUMERIC(12,6) NOT NULL,
  UNIQUE (equipment_type_id, measure)
)`,

	`CREATE TABLE IF NOT EXISTS equipment_type_verification_items (
  id BIGSERIAL PRIMARY KEY,
  equipment_type_id BIGINT NOT NULL REFERENCES equipment_types(id),
  item TEXT NOT NULL,
  response_type response_type NOT NULL,
  is_required BOOLEAN NOT NULL DEFAULT false,
  sort_order INT NOT NULL DEFAULT 0,
  expected_bool BOOLEAN,
  expected_text_options TEXT[],
  expected_number DOUBLE PRECISION,
  expected_number_min DOUBLE PRECISION,
  expected_number_max DOUBLE PRECISION
)`,

	`CREATE TABLE IF NOT EXISTS equipment (
  id BIGSERIAL PRIMARY KEY,
  equipment_type_id BIGINT NOT NULL REFERENCES equipment_types(id),
  terminal_id BIGINT NOT NULL REFERENCES company_terminals(id),
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  internal_code TEXT,
  status equipment_status NOT NULL DEFAULT 'stored',
  inspection_days_override INT,
  weight_class TEXT,
  nominal_mass_value DOUBLE PRECISION,
  nominal_mass_unit mass_unit,
  emp_value NUMERIC(12,6),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS equipment_component_serials (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  component_name TEXT NOT NULL,
  serial TEXT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS equipment_measure_specs (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  measure measure_type NOT NULL,
  min_value DOUBLE PRECISION,
  max_value DOUBLE PRECISION,
  resolution DOUBLE PRECISION,
  UNIQUE (equipment_id, measure)
)`,

	`CREATE TABLE IF NOT EXISTS equipment_type_history (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  equipment_type_id BIGINT NOT NULL REFERENCES equipment_types(id),
  started_at TIMESTAMPTZ NOT NULL,
  ended_at TIMESTAMPTZ,
  changed_by_user_id BIGINT NOT NULL REFERENCES users(id)
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_equipment_type_history_open
   ON equipment_type_history(equipment_id) WHERE ended_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS equipment_terminal_history (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  terminal_id BIGINT NOT NULL REFERENCES company_terminals(id),
  started_at TIMESTAMPTZ NOT NULL,
  ended_at TIMESTAMPTZ,
  changed_by_user_id BIGINT NOT NULL REFERENCES users(id)
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_equipment_terminal_history_open
   ON equipment_terminal_history(equipment_id) WHERE ended_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS equipment_readings (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  value_celsius DOUBLE PRECISION NOT NULL,
  measured_at TIMESTAMPTZ NOT NULL,
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS equipment_inspections (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  inspected_at TIMESTAMPTZ NOT NULL,
  notes TEXT,
  is_ok BOOLEAN,
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS equipment_verifications (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  verified_at TIMESTAMPTZ NOT NULL,
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  notes TEXT,
  is_ok BOOLEAN,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS equipment_verification_responses (
  id BIGSERIAL PRIMARY KEY,
  verification_id BIGINT NOT NULL REFERENCES equipment_verifications(id),
  verification_item_id BIGINT NOT NULL REFERENCES equipment_type_verification_items(id),
  response_type response_type NOT NULL,
  value_bool BOOLEAN,
  value_text TEXT,
  value_number DOUBLE PRECISION,
  is_ok BOOLEAN,
  CHECK (
    (value_bool IS NOT NULL)::int +
    (value_text IS NOT NULL)::int +
    (value_number IS NOT NULL)::int = 1
  )
)`,

	`CREATE TABLE IF NOT EXISTS equipment_calibrations (
  id BIGSERIAL PRIMARY KEY,
  equipment_id BIGINT NOT NULL REFERENCES equipment(id),
  calibrated_at TIMESTAMPTZ NOT NULL,
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  calibration_company_id BIGINT REFERENCES companies(id),
  certificate_number TEXT NOT NULL,
  certificate_pdf_url TEXT,
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS equipment_calibration_results (
  id BIGSERIAL PRIMARY KEY,
  calibration_id BIGINT NOT NULL REFERENCES equipment_calibrations(id),
  point_label TEXT,
  reference_value DOUBLE PRECISION,
  measured_value DOUBLE PRECISION,
  unit TEXT,
  error_value DOUBLE PRECISION,
  tolerance_value DOUBLE PRECISION,
  is_ok BOOLEAN,
  volume_value DOUBLE PRECISION,
  systematic_error DOUBLE PRECISION,
  systematic_emp DOUBLE PRECISION,
  random_error DOUBLE PRECISION,
  random_emp DOUBLE PRECISION,
  uncertainty_value DOUBLE PRECISION,
  k_value DOUBLE PRECISION
)`,

	`CREATE TABLE IF NOT EXISTS external_analysis_types (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  default_frequency_days INT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS external_analysis_terminals (
  id BIGSERIAL PRIMARY KEY,
  terminal_id BIGINT NOT NULL REFERENCES company_terminals(id),
  analysis_type_id BIGINT NOT NULL REFERENCES external_analysis_types(id),
  frequency_days INT NOT NULL DEFAULT 0,
  UNIQUE (terminal_id, analysis_type_id)
)`,

	`CREATE TABLE IF NOT EXISTS external_analysis_records (
  id BIGSERIAL PRIMARY KEY,
  terminal_id BIGINT NOT NULL REFERENCES company_terminals(id),
  analysis_type_id BIGINT NOT NULL REFERENCES external_analysis_types(id),
  analysis_company_id BIGINT REFERENCES companies(id),
  performed_at TIMESTAMPTZ NOT NULL,
  report_number TEXT,
  report_pdf_url TEXT,
  result_value DOUBLE PRECISION,
  result_unit TEXT,
  result_uncertainty DOUBLE PRECISION,
  method TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS samples (
  id BIGSERIAL PRIMARY KEY,
  terminal_id BIGINT NOT NULL REFERENCES company_terminals(id),
  code TEXT NOT NULL,
  sequence BIGINT NOT NULL,
  product_name TEXT NOT NULL DEFAULT 'Crudo',
  identifier TEXT,
  analyzed_at TIMESTAMPTZ,
  lab_humidity DOUBLE PRECISION,
  lab_temperature DOUBLE PRECISION,
  thermohygrometer_id BIGINT REFERENCES equipment(id),
  created_by_user_id BIGINT NOT NULL REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (terminal_id, code)
)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_code ON samples(code)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_sequence ON samples(sequence)`,

	`CREATE TABLE IF NOT EXISTS sample_analyses (
  id BIGSERIAL PRIMARY KEY,
  sample_id BIGINT NOT NULL REFERENCES samples(id),
  analysis_type TEXT NOT NULL,
  product_name TEXT NOT NULL DEFAULT 'Crudo',
  temp_obs_f DOUBLE PRECISION,
  lectura_api DOUBLE PRECISION,
  api_60f DOUBLE PRECISION,
  water_value DOUBLE PRECISION,
  hydrometer_id BIGINT REFERENCES equipment(id),
  thermometer_id BIGINT REFERENCES equipment(id),
  kf_equipment_id BIGINT REFERENCES equipment(id),
  kf_factor_avg DOUBLE PRECISION,
  water_balance_id BIGINT REFERENCES equipment(id),
  water_sample_weight DOUBLE PRECISION,
  water_sample_weight_unit mass_unit,
  water_volume_consumed DOUBLE PRECISION,
  water_volume_unit TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,

	`CREATE TABLE IF NOT EXISTS sample_analysis_history (
  id BIGSERIAL PRIMARY KEY,
  sample_id BIGINT NOT NULL REFERENCES samples(id),
  sample_analysis_id BIGINT NOT NULL REFERENCES sample_analyses(id),
  changed_by_user_id BIGINT NOT NULL REFERENCES users(id),
  changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  analysis_type_before TEXT, analysis_type_after TEXT,
  product_name_before TEXT, product_name_after TEXT,
  temp_obs_f_before DOUBLE PRECISION, temp_obs_f_after DOUBLE PRECISION,
  lectura_api_before DOUBLE PRECISION, lectura_api_after DOUBLE PRECISION,
  api_60f_before DOUBLE PRECISION, api_60f_after DOUBLE PRECISION,
  water_value_before DOUBLE PRECISION, water_value_after DOUBLE PRECISION,
  hydrometer_id_before BIGINT, hydrometer_id_after BIGINT,
  thermometer_id_before BIGINT, thermometer_id_after BIGINT,
  kf_equipment_id_before BIGINT, kf_equipment_id_after BIGINT,
  kf_factor_avg_before DOUBLE PRECISION, kf_factor_avg_after DOUBLE PRECISION,
  water_balance_id_before BIGINT, water_balance_id_after BIGINT,
  water_sample_weight_before DOUBLE PRECISION, water_sample_weight_after DOUBLE PRECISION,
  water_sample_weight_unit_before TEXT, water_sample_weight_unit_after TEXT,
  water_volume_consumed_before DOUBLE PRECISION, water_volume_consumed_after DOUBLE PRECISION,
  water_volume_unit_before TEXT, water_volume_unit_after TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_sample_analysis_history_sample_id
   ON sample_analysis_history(sample_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sample_analysis_history_analysis_id
   ON sample_analysis_history(sample_analysis_id)`,
}

// Apply creates enum types and tables. Safe to run repeatedly.
func Apply(ctx context.Context, db *sqlx.DB) error {
	for _, e := range enumTypes {
		// CREATE TYPE has no IF NOT EXISTS; guard through the catalog.
		q := fmt.Sprintf(`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = '%s') THEN
    CREATE TYPE %s AS ENUM (%s);
  END IF;
END $$`, e.name, e.name, e.values)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create enum %s: %w", e.name, err)
		}
	}
	for _, a := range enumAdditions {
		q := fmt.Sprintf(`ALTER TYPE %s ADD VALUE IF NOT EXISTS '%s'`, a.enum, a.value)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("extend enum %s with %s: %w", a.enum, a.value, err)
		}
	}
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
