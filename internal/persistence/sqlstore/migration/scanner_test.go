package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/010_add_index.sql":      {Data: []byte("CREATE INDEX a ON t (x);")},
		"sql/002_second.sql":         {Data: []byte("-- Description: Second step\nCREATE TABLE b (id INTEGER);")},
		"sql/001_initial_schema.sql": {Data: []byte("CREATE TABLE t (x INTEGER);")},
		"sql/README.md":              {Data: []byte("ignored")},
	}

	migrations, err := NewScanner(fsys, "sql").Scan()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "initial schema", migrations[0].Description)
	assert.Equal(t, "002", migrations[1].Version)
	assert.Equal(t, "Second step", migrations[1].Description)
	assert.Equal(t, "010", migrations[2].Version)
	assert.Equal(t, "sql/010_add_index.sql", migrations[2].FilePath)
	assert.Len(t, migrations[0].Checksum, 64)
}

func TestScanner_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want error
	}{
		{
			name: "bad file name",
			fsys: fstest.MapFS{"sql/initial.sql": {Data: []byte("SELECT 1;")}},
			want: ErrInvalidMigrationFile,
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"sql/001_a.sql": {Data: []byte("SELECT 1;")},
				"sql/001_b.sql": {Data: []byte("SELECT 2;")},
			},
			want: ErrDuplicateVersion,
		},
		{
			name: "comments only",
			fsys: fstest.MapFS{"sql/001_empty.sql": {Data: []byte("-- nothing here\n")}},
			want: ErrInvalidMigrationFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScanner(tt.fsys, "sql").Scan()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestScanner_EmbeddedFiles(t *testing.T) {
	migrations, err := NewScanner(Files, Dir).Scan()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "rooms, users, reservations, attendees and id counters", migrations[0].Description)
}

func TestSplitStatements(t *testing.T) {
	sqlText := `
-- Description: test
CREATE TABLE a (id INTEGER);

-- comment between
CREATE INDEX a_idx
    ON a (id);
`
	assert.Equal(t, []string{
		"CREATE TABLE a (id INTEGER)",
		"CREATE INDEX a_idx\nON a (id)",
	}, splitStatements(sqlText))
}
