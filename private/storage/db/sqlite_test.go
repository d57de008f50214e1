// Copyright 2025 ETH Zurich, Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/private/xtest"
	"github.com/newsdesk/newsdesk/private/storage/db"
)

const testSchema = `CREATE TABLE Items(Name TEXT NOT NULL PRIMARY KEY);`

func TestSetup(t *testing.T) {
	path := xtest.TempDBPath(t)
	d, err := db.NewSqlite(path, nil)
	require.NoError(t, err)
	require.NoError(t, d.Setup(testSchema, 1))
	// Setup is idempotent for the same version.
	require.NoError(t, d.Setup(testSchema, 1))
	require.NoError(t, d.Close())

	d, err = db.NewSqlite(path, nil)
	require.NoError(t, err)
	defer d.Close()
	assert.Error(t, d.Setup(testSchema, 2))
}

func TestRejectsAnonymousMemory(t *testing.T) {
	_, err := db.NewSqlite(":memory:", nil)
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	d, err := db.NewSqlite("file:"+t.Name(), &db.SqliteConfig{InMemory: true})
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Setup(testSchema, 1))
	ctx := context.Background()

	err = d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO Items(Name) VALUES ('committed')`)
		return err
	})
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = d.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO Items(Name) VALUES ('dropped')`); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	var count int
	require.NoError(t, d.ReadOnly.QueryRowContext(ctx, `SELECT COUNT(*) FROM Items`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCheckpoint(t *testing.T) {
	d, err := db.NewSqlite(xtest.TempDBPath(t), nil)
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Setup(testSchema, 1))
	_, err = d.Checkpoint(context.Background())
	assert.NoError(t, err)
}
