package codegen

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries(t *testing.T) {
	s := mustParse(t, "CREATE TABLE Users (Id INT PRIMARY KEY, Name VARCHAR(50) NOT NULL, Email VARCHAR(100));")
	q := Queries(s.Tables[0])

	assert.Equal(t, QuerySet{
		Exists:     "SELECT COUNT(*) FROM Users WHERE Id = @Id",
		Insert:     "INSERT INTO Users (Name, Email) VALUES (@Name, @Email)",
		Update:     "UPDATE Users SET Name = @Name, Email = @Email WHERE Id = @Id",
		SelectByID: "SELECT Id, Name, Email FROM Users WHERE Id = @Id",
		Delete:     "DELETE FROM Users WHERE Id = @Id",
	}, q)
}

func TestQueriesKeyNotFirst(t *testing.T) {
	s := mustParse(t, "CREATE TABLE items (name TEXT, item_id INT, qty INT);")
	q := Queries(s.Tables[0])

	assert.Equal(t, "INSERT INTO items (name, qty) VALUES (@name, @qty)", q.Insert)
	assert.Equal(t, "UPDATE items SET name = @name, qty = @qty WHERE item_id = @item_id", q.Update)
	assert.Equal(t, "SELECT name, item_id, qty FROM items WHERE item_id = @item_id", q.SelectByID)
}

// The statements the generated repositories run are executed against SQLite,
// which binds sql.Named arguments to @name parameters.
func TestQueriesRunAgainstSQLite(t *testing.T) {
	const ddl = `CREATE TABLE Users (Id INTEGER PRIMARY KEY, Name VARCHAR(50) NOT NULL, Email VARCHAR(100));`

	ctx := context.Background()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, ddl)
	require.NoError(t, err)

	q := Queries(mustParse(t, ddl).Tables[0])

	// Insert: key left to the database
	var count int
	require.NoError(t, db.QueryRowContext(ctx, q.Exists, sql.Named("Id", 1)).Scan(&count))
	assert.Equal(t, 0, count)

	_, err = db.ExecContext(ctx, q.Insert, sql.Named("Name", "ada"), sql.Named("Email", sql.NullString{}))
	require.NoError(t, err)

	require.NoError(t, db.QueryRowContext(ctx, q.Exists, sql.Named("Id", 1)).Scan(&count))
	assert.Equal(t, 1, count)

	// Update
	_, err = db.ExecContext(ctx, q.Update,
		sql.Named("Name", "ada lovelace"),
		sql.Named("Email", sql.NullString{String: "ada@example.com", Valid: true}),
		sql.Named("Id", 1),
	)
	require.NoError(t, err)

	// Get
	var (
		id    int
		name  string
		email sql.NullString
	)
	require.NoError(t, db.QueryRowContext(ctx, q.SelectByID, sql.Named("Id", 1)).Scan(&id, &name, &email))
	assert.Equal(t, 1, id)
	assert.Equal(t, "ada lovelace", name)
	assert.Equal(t, sql.NullString{String: "ada@example.com", Valid: true}, email)

	err = db.QueryRowContext(ctx, q.SelectByID, sql.Named("Id", 2)).Scan(&id, &name, &email)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Delete
	res, err := db.ExecContext(ctx, q.Delete, sql.Named("Id", 1))
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	res, err = db.ExecContext(ctx, q.Delete, sql.Named("Id", 1))
	require.NoError(t, err)
	affected, err = res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)
}

func TestQueriesDefaultValuesRunAgainstSQLite(t *testing.T) {
	const ddl = `CREATE TABLE Tokens (id INTEGER PRIMARY KEY);`

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(ddl)
	require.NoError(t, err)

	q := Queries(mustParse(t, ddl).Tables[0])
	assert.Empty(t, q.Update)

	_, err = db.Exec(q.Insert)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(q.Exists, sql.Named("id", 1)).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestFieldName(t *testing.T) {
	tests := map[string]string{
		"first_name":  "FirstName",
		"Id":          "Id",
		"ID":          "Id",
		"userId":      "Userid",
		"last name":   "LastName",
		"EMAIL":       "Email",
		"order__line": "OrderLine",
	}
	for in, want := range tests {
		assert.Equal(t, want, FieldName(in), in)
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Users", TypeName("Users", false))
	assert.Equal(t, "Users", TypeName("users", false))
	assert.Equal(t, "OrderItems", TypeName("OrderItems", false))
	assert.Equal(t, "OrderItems", TypeName("order_items", false))
	assert.Equal(t, "OrderItem", TypeName("order_items", true))
}
