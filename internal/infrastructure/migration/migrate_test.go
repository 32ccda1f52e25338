package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"github.com/erp/receivables/migrations"
)

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range entries {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
	assert.Len(t, ups, 4)
}

func TestEmbeddedMigrations_DeclareLedgerIndexes(t *testing.T) {
	var all strings.Builder
	entries, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	for _, name := range entries {
		b, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		all.Write(b)
	}

	schema := all.String()
	for _, idx := range []string{
		"idx_customers_code",
		"idx_invoices_number",
		"idx_invoices_customer_status",
		"idx_payments_invoice_order",
		"idx_payments_reverses",
		"idx_reminder_logs_once",
	} {
		assert.Contains(t, schema, idx)
	}
}

func TestAutoMigrate_Sqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db, zap.NewNop()))

	m := db.Migrator()
	for _, table := range []string{"customers", "invoices", "invoice_items", "payments", "reminder_logs"} {
		assert.True(t, m.HasTable(table), table)
	}
	assert.True(t, m.HasIndex(&models.InvoiceModel{}, "idx_invoices_number"))
	assert.True(t, m.HasIndex(&models.ReminderLogModel{}, "idx_reminder_logs_once"))
	assert.True(t, m.HasIndex(&models.PaymentModel{}, "idx_payments_reverses"))

	// idempotent
	require.NoError(t, AutoMigrate(db, zap.NewNop()))
}
