package migrations

import "github.com/go-rel/rel"

func MigrateCreateAuthorisations(schema *rel.Schema) {
	schema.CreateTable("authorisations", func(t *rel.Table) {
		t.ID("id")
		t.String("external_id")
		t.String("parent_external_id")
		t.JSON("psu_data")
		t.String("sca_status")
		t.String("sca_approach")
		t.String("sca_method_id")
		t.JSON("challenge")
		t.DateTime("redirect_url_expiration")
		t.DateTime("expiration")
		t.String("internal_request_id")
		t.String("instance_id")
		t.Int("version")
		t.Unique([]string{"external_id"})
	})
}

func RollbackCreateAuthorisations(schema *rel.Schema) {
	schema.DropTable("authorisations")
}
