package migrations

import "github.com/go-rel/rel"

func MigrateCreateConsents(schema *rel.Schema) {
	schema.CreateTable("consents", func(t *rel.Table) {
		t.ID("id")
		t.String("external_id")
		t.String("consent_type")
		t.String("status")
		t.Bool("recurring_indicator")
		t.Bool("combined_service_indicator")
		t.Bool("multilevel_sca_required")
		t.Int("frequency_per_day")
		t.Int("tpp_frequency_per_day")
		t.DateTime("creation_timestamp")
		t.String("valid_until")
		t.String("expire_date")
		t.String("last_action_date")
		t.JSON("psu_data")
		t.JSON("tpp_information")
		t.Text("consent_data")
		t.String("consent_data_algorithm")
		t.Text("checksum")
		t.String("checksum_version")
		t.String("usage_date")
		t.String("instance_id")
		t.Int("consent_version")
		t.Unique([]string{"external_id"})
	})
}

func RollbackCreateConsents(schema *rel.Schema) {
	schema.DropTable("consents")
}
