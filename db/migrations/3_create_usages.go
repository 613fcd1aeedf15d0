package migrations

import "github.com/go-rel/rel"

func MigrateCreateUsages(schema *rel.Schema) {
	schema.CreateTable("usages", func(t *rel.Table) {
		t.ID("id")
		t.String("request_uri")
		t.Int("remaining")
		t.Int("consent")
		t.ForeignKey("consent", "consents", "id")
	})
}

func RollbackCreateUsages(schema *rel.Schema) {
	schema.DropTable("usages")
}
