package mapping

import (
	"reflect"
	"testing"

	"fte-grid-service/internal/models"
	"fte-grid-service/internal/tabular"
	pkgerrors "fte-grid-service/pkg/errors"
)

func createCountriesTable() *tabular.Table {
	return tabular.New(
		[]string{"kpi agency", "branch", "agency code", "fc code",
			"ceo region", "continent split", "regional director", "currency"},
		[][]string{
			{"alpha", "main", "101.0", "fc_alpha", "emea", "europe", "dupont", "eur"},
			{"alpha", "aux", "101.0", "fc_alpha", "emea", "europe", "dupont", "eur"},
			{"beta", "main", "102", "fc_beta", "amer", "america", "smith", "usd"},
		},
	)
}

func createDepartmentsTable() *tabular.Table {
	return tabular.New(
		[]string{"kpi department", "department fc code"},
		[][]string{
			{"operations", "x1000"},
			{"administration", "x2000"},
			{"commercial", "x3000"},
			{"overtime hours", "x9400"},
			{"nb of trainees", "x9100"},
			{"nb of temporary contracts", "x9200"},
			{"nb of long-term leaves", "x9300"},
		},
	)
}

func TestTransformCountries(t *testing.T) {
	m, err := TransformCountries(createCountriesTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(m.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(m.Rows))
	}
	// The historical integer-as-float form is coerced.
	if m.Rows[0].AgencyCode != "101" {
		t.Errorf("Expected agency code '101', got '%s'", m.Rows[0].AgencyCode)
	}
	if m.Rows[2].AgencyCode != "102" {
		t.Errorf("Expected agency code '102', got '%s'", m.Rows[2].AgencyCode)
	}
}

func TestTransformCountriesMissingColumn(t *testing.T) {
	table := tabular.New([]string{"kpi agency", "branch"}, nil)

	_, err := TransformCountries(table)
	if err == nil {
		t.Fatal("Expected error for missing columns")
	}
	pipelineErr, ok := pkgerrors.AsPipelineError(err)
	if !ok || pipelineErr.Code != pkgerrors.CodeMissingColumn {
		t.Errorf("Expected missing_column error, got %v", err)
	}
}

func TestCountryMapValidateDuplicateKey(t *testing.T) {
	rows := []models.CountryRow{
		{Agency: "alpha", Branch: "main"},
		{Agency: "alpha", Branch: "main"},
	}

	err := NewCountryMap(rows).Validate()
	if err == nil {
		t.Fatal("Expected error for duplicate (agency, branch) key")
	}
	pipelineErr, ok := pkgerrors.AsPipelineError(err)
	if !ok || pipelineErr.Code != pkgerrors.CodeDuplicateMappingKey {
		t.Errorf("Expected duplicate_mapping_key error, got %v", err)
	}
}

func TestCountryMapLookup(t *testing.T) {
	m, err := TransformCountries(createCountriesTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	matches := m.Lookup("alpha", "aux")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].FCCode != "fc_alpha" {
		t.Errorf("Expected fc_alpha, got '%s'", matches[0].FCCode)
	}

	if got := m.Lookup("gamma", "main"); len(got) != 0 {
		t.Errorf("Expected no match for unknown key, got %v", got)
	}
}

func TestCountryMapAgencies(t *testing.T) {
	m, _ := TransformCountries(createCountriesTable())

	agencies := m.Agencies()
	if len(agencies) != 2 || !agencies["alpha"] || !agencies["beta"] {
		t.Errorf("Unexpected agency set: %v", agencies)
	}
}

func TestResolveFCCode(t *testing.T) {
	m := NewCountryMap([]models.CountryRow{
		{Agency: "alpha", Branch: "main", FCCode: "fc_alpha"},
		{Agency: "alpha", Branch: "aux", FCCode: "fc_alpha"},
		{Agency: "beta", Branch: "main", FCCode: "fc_beta1"},
		{Agency: "beta", Branch: "aux", FCCode: "fc_beta2"},
	})

	code, err := m.ResolveFCCode("alpha")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if code != "fc_alpha" {
		t.Errorf("Expected fc_alpha, got '%s'", code)
	}

	_, err = m.ResolveFCCode("beta")
	pipelineErr, ok := pkgerrors.AsPipelineError(err)
	if !ok || pipelineErr.Code != pkgerrors.CodeAmbiguousFCCode {
		t.Errorf("Expected ambiguous_fc_code error, got %v", err)
	}

	_, err = m.ResolveFCCode("gamma")
	pipelineErr, ok = pkgerrors.AsPipelineError(err)
	if !ok || pipelineErr.Code != pkgerrors.CodeMissingFCCode {
		t.Errorf("Expected missing_fc_code error, got %v", err)
	}
}

func TestTransformDepartments(t *testing.T) {
	m, err := TransformDepartments(createDepartmentsTable())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(m.Rows) != 7 {
		t.Fatalf("Expected 7 rows, got %d", len(m.Rows))
	}

	code, ok := m.CodeFor("operations")
	if !ok || code != "x1000" {
		t.Errorf("Expected x1000 for operations, got '%s' (ok=%v)", code, ok)
	}

	labels := m.NonStandardLabels()
	if len(labels) != NonStandardTailRows {
		t.Fatalf("Expected %d non-standard labels, got %d", NonStandardTailRows, len(labels))
	}
	expected := []string{"overtime hours", "nb of trainees",
		"nb of temporary contracts", "nb of long-term leaves"}
	got := make([]string, len(labels))
	for i, label := range labels {
		got[i] = label.Department
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected trailing labels %v, got %v", expected, got)
	}
}

func TestTransformSheet(t *testing.T) {
	maps := &Maps{}

	if err := TransformSheet(maps, createCountriesTable(), KindCountries); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := TransformSheet(maps, createDepartmentsTable(), KindDepartments); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if maps.Countries == nil || maps.Departments == nil {
		t.Fatal("Expected both mappings to be populated")
	}
}

func TestTransformSheetUnknownKind(t *testing.T) {
	err := TransformSheet(&Maps{}, createCountriesTable(), Kind("regions"))
	if err == nil {
		t.Fatal("Expected error for unknown mapping kind")
	}
	pipelineErr, ok := pkgerrors.AsPipelineError(err)
	if !ok || pipelineErr.Code != pkgerrors.CodeUnknownMappingKind {
		t.Errorf("Expected unknown_mapping_kind error, got %v", err)
	}
	if pipelineErr.GetExitCode() != 4 {
		t.Errorf("Expected configuration exit code 4, got %d", pipelineErr.GetExitCode())
	}
}

func TestCanonicalAgencyCode(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"101.0", "101"},
		{"101", "101"},
		{" 102.0 ", "102"},
		{"101.5", "101.5"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := canonicalAgencyCode(tt.value); got != tt.expected {
			t.Errorf("canonicalAgencyCode(%q): expected %q, got %q", tt.value, tt.expected, got)
		}
	}
}
