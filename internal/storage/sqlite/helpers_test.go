package sqlite

import gddl "checkpost/internal/ddl"

func storageTable(name string) gddl.TableDef {
	return gddl.TableDef{
		FQN: name,
		Columns: []gddl.ColumnDef{
			{Name: "id", SQLType: "INTEGER", PrimaryKey: true, Identity: true},
			{Name: "name", SQLType: "TEXT", Nullable: true},
		},
	}
}
