package dbtype

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"sqlite", SQLite, false},
		{"SQLite", SQLite, false},
		{"mysql", MySQL, false},
		{"MariaDB", MySQL, false},
		{"h2", H2, false},
		{"postgres", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseType(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseType(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrimaryKey(t *testing.T) {
	inline, trailing := SQLite.PrimaryKey("id")
	if inline != "integer PRIMARY KEY" || trailing != "" {
		t.Errorf("SQLite primary key = %q, %q", inline, trailing)
	}

	for _, typ := range []Type{MySQL, H2} {
		inline, trailing := typ.PrimaryKey("id")
		if inline != "integer NOT NULL AUTO_INCREMENT" || trailing != "PRIMARY KEY (id)" {
			t.Errorf("%s primary key = %q, %q", typ, inline, trailing)
		}
	}
}

func TestForeignKeyToggle(t *testing.T) {
	if SQLite.DisableForeignKeyChecks() != "" || H2.EnableForeignKeyChecks() != "" {
		t.Error("only MySQL toggles foreign key checks")
	}
	if MySQL.DisableForeignKeyChecks() != "SET FOREIGN_KEY_CHECKS=0" {
		t.Errorf("unexpected disable statement %q", MySQL.DisableForeignKeyChecks())
	}
	if MySQL.EnableForeignKeyChecks() != "SET FOREIGN_KEY_CHECKS=1" {
		t.Errorf("unexpected enable statement %q", MySQL.EnableForeignKeyChecks())
	}
}

func TestSchemaStatements(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sqlite rename", SQLite.RenameTable("a", "b"), "ALTER TABLE a RENAME TO b"},
		{"h2 rename", H2.RenameTable("a", "b"), "ALTER TABLE a RENAME TO b"},
		{"mysql rename", MySQL.RenameTable("a", "b"), "RENAME TABLE a TO b"},
		{"sqlite add", SQLite.AddColumn("t", "c int"), "ALTER TABLE t ADD COLUMN c int"},
		{"mysql add", MySQL.AddColumn("t", "c int"), "ALTER TABLE t ADD c int"},
		{"unique index", SQLite.CreateUniqueIndex("i", "t", "a", "b"), "CREATE UNIQUE INDEX i ON t (a, b)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestUpsert(t *testing.T) {
	got := SQLite.Upsert([]string{"uuid", "ip_hash"}, []string{"last_used"}, "times_used")
	want := " ON CONFLICT (uuid, ip_hash) DO UPDATE SET last_used=excluded.last_used, times_used=times_used+excluded.times_used"
	if got != want {
		t.Errorf("SQLite upsert\n got %q\nwant %q", got, want)
	}

	got = MySQL.Upsert([]string{"uuid"}, []string{"a", "b"})
	want = " ON DUPLICATE KEY UPDATE a=VALUES(a), b=VALUES(b)"
	if got != want {
		t.Errorf("MySQL upsert\n got %q\nwant %q", got, want)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a=? AND b='?' AND c=?"

	if got := SQLite.Rebind(q); got != q {
		t.Errorf("SQLite should not rebind, got %q", got)
	}
	if got := MySQL.Rebind(q); got != q {
		t.Errorf("MySQL should not rebind, got %q", got)
	}

	want := "SELECT * FROM t WHERE a=$1 AND b='?' AND c=$2"
	if got := H2.Rebind(q); got != want {
		t.Errorf("H2 rebind = %q, want %q", got, want)
	}
}
