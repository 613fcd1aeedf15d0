package migrations

import "github.com/go-rel/rel"

func MigrateCreateAccesses(schema *rel.Schema) {
	schema.CreateTable("accesses", func(t *rel.Table) {
		t.ID("id")
		t.String("source")
		t.String("type_access")
		t.String("resource_id")
		t.String("aspsp_account_id")
		t.String("iban")
		t.String("currency")
		t.Int("consent")
		t.ForeignKey("consent", "consents", "id")
	})
}

func RollbackCreateAccesses(schema *rel.Schema) {
	schema.DropTable("accesses")
}
