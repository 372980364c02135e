package ddl

import (
	"strings"
	"testing"

	gddl "checkpost/internal/ddl"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		size int
		want string
	}{
		{"bigint", 0, "BIGINT"},
		{"bool", 0, "TINYINT(1)"},
		{"date", 0, "DATE"},
		{"time", 0, "TIME"},
		{"varchar", 50, "VARCHAR(50)"},
		{"varchar", 0, "TEXT"},
		{"whatever", 0, "TEXT"},
	}
	for _, tt := range tests {
		if got := MapType(tt.kind, tt.size); got != tt.want {
			t.Errorf("MapType(%q, %d) = %q, want %q", tt.kind, tt.size, got, tt.want)
		}
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN: "police.stops",
		Columns: []gddl.ColumnDef{
			{Name: "id", SQLType: "BIGINT", PrimaryKey: true, Identity: true},
			{Name: "driver_age", SQLType: "BIGINT", Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS `police`.`stops`",
		"`id` BIGINT NOT NULL AUTO_INCREMENT,",
		"PRIMARY KEY (`id`)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DDL missing %q:\n%s", want, got)
		}
	}
}
