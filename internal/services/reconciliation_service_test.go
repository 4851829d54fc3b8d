package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow-backend/internal/models"
)

const header = "Datum;Částka;Variabilní symbol\n"

type reconciliationFixture struct {
	env      *testEnv
	landlord *models.User
	tenant   *models.User
	lease    *models.Lease
}

func newReconciliationFixture() *reconciliationFixture {
	env := newTestEnv()
	landlord := env.db.addUser(models.RoleLandlord, "Jana Nováková")
	tenant := env.db.addUser(models.RoleTenant, "Petr Svoboda")
	lease := env.db.addLease(landlord.ID, tenant.ID, "12345", models.LeaseActive)
	return &reconciliationFixture{env: env, landlord: landlord, tenant: tenant, lease: lease}
}

func (f *reconciliationFixture) importCSV(t *testing.T, raw string) *models.ReconciliationResult {
	t.Helper()
	result, err := f.env.reconciliation.Import(context.Background(), raw, f.landlord.ID)
	require.NoError(t, err)
	return result
}

func TestImport_MatchesEarliestDuePayment(t *testing.T) {
	f := newReconciliationFixture()
	march := f.env.db.addPayment(f.lease.ID, "12345", "2026-03-01", models.PaymentUnpaid)
	feb := f.env.db.addPayment(f.lease.ID, "12345", "2026-02-01", models.PaymentUnpaid)

	result := f.importCSV(t, header+"05.02.2026;15000,00;0012345")

	require.Len(t, result.Matched, 1)
	m := result.Matched[0]
	assert.Equal(t, feb.ID, m.PaymentID)
	assert.Equal(t, f.lease.ID, m.LeaseID)
	assert.Equal(t, "12345", m.VariableSymbol)
	assert.Equal(t, "15000", m.Amount.String())
	require.NotNil(t, m.Date)
	assert.Equal(t, "2026-02-05", *m.Date)
	assert.Equal(t, 2, m.Line)
	assert.Equal(t, "batch-1", result.BatchID)
	assert.Equal(t, 1, result.TotalRows)

	settled := f.env.db.payment(feb.ID)
	assert.Equal(t, models.PaymentPaid, settled.Status)
	require.NotNil(t, settled.PaidDate)
	assert.Equal(t, "2026-02-05", settled.PaidDate.Format("2006-01-02"))
	assert.Equal(t, "Auto-matched from bank CSV import (batch batch-1)", settled.Note)
	assert.Equal(t, 2, settled.Version)

	assert.Equal(t, models.PaymentUnpaid, f.env.db.payment(march.ID).Status)
}

func TestImport_RecalculatesTenantScore(t *testing.T) {
	f := newReconciliationFixture()
	p := f.env.db.addPayment(f.lease.ID, "12345", "2026-03-01", models.PaymentUnpaid)
	f.env.cache.Set(context.Background(), f.tenant.ID, []byte("stale"))

	f.importCSV(t, header+"28.02.2026;15000;12345")

	assert.Equal(t, models.PaymentPaid, f.env.db.payment(p.ID).Status)
	assert.Equal(t, 100.0, f.env.db.user(f.tenant.ID).TrustScore)
	_, cached := f.env.cache.Get(context.Background(), f.tenant.ID)
	assert.False(t, cached)
}

func TestImport_RejectionReasons(t *testing.T) {
	f := newReconciliationFixture()
	otherLandlord := f.env.db.addUser(models.RoleLandlord, "Other")
	otherTenant := f.env.db.addUser(models.RoleTenant, "Someone")
	f.env.db.addLease(otherLandlord.ID, otherTenant.ID, "777", models.LeaseActive)
	f.env.db.addPayment(f.lease.ID, "12345", "2026-01-01", models.PaymentPaid)

	raw := header +
		"01.03.2026;100;\n" +
		"01.03.2026;100;000\n" +
		"01.03.2026;100;999\n" +
		"01.03.2026;100;777\n" +
		"01.03.2026;100;12345\n"

	result := f.importCSV(t, raw)

	assert.Equal(t, 5, result.TotalRows)
	assert.Empty(t, result.Matched)
	require.Len(t, result.Unmatched, 4)
	assert.Equal(t, "Missing variable symbol", result.Unmatched[0].Reason)
	assert.Equal(t, "Missing variable symbol", result.Unmatched[1].Reason)
	assert.Equal(t, "Variable symbol not found: 999", result.Unmatched[2].Reason)
	assert.Equal(t, "Variable symbol not found: 777", result.Unmatched[3].Reason)
	assert.Equal(t, "999", result.Unmatched[2].Row["variable_symbol"])
	assert.Equal(t, 4, result.Unmatched[2].Line)

	require.Len(t, result.AlreadyPaid, 1)
	assert.Equal(t, "No unpaid payment found for VS: 12345", result.AlreadyPaid[0].Reason)
}

func TestImport_ReimportLandsInAlreadyPaid(t *testing.T) {
	f := newReconciliationFixture()
	f.env.db.addPayment(f.lease.ID, "12345", "2026-03-01", models.PaymentUnpaid)
	raw := header + "01.03.2026;15000;12345"

	first := f.importCSV(t, raw)
	second := f.importCSV(t, raw)

	assert.Len(t, first.Matched, 1)
	assert.Empty(t, second.Matched)
	require.Len(t, second.AlreadyPaid, 1)
	assert.Equal(t, models.ReasonNoUnpaid+"12345", second.AlreadyPaid[0].Reason)
}

func TestImport_FallsBackToPaymentWithoutSymbol(t *testing.T) {
	f := newReconciliationFixture()
	p := f.env.db.addPayment(f.lease.ID, "", "2026-03-01", models.PaymentUnpaid)

	result := f.importCSV(t, header+"02.03.2026;15000;12345")

	require.Len(t, result.Matched, 1)
	assert.Equal(t, p.ID, result.Matched[0].PaymentID)
	assert.Equal(t, "12345", f.env.db.payment(p.ID).VariableSymbol)
}

func TestImport_PrefersSymbolMatchOverEarlierUnstampedPayment(t *testing.T) {
	f := newReconciliationFixture()
	f.env.db.addPayment(f.lease.ID, "", "2026-01-01", models.PaymentUnpaid)
	stamped := f.env.db.addPayment(f.lease.ID, "12345", "2026-02-01", models.PaymentUnpaid)

	result := f.importCSV(t, header+"02.03.2026;15000;12345")

	require.Len(t, result.Matched, 1)
	assert.Equal(t, stamped.ID, result.Matched[0].PaymentID)
}

func TestImport_RowsForSameLeaseConsumePaymentsInFileOrder(t *testing.T) {
	f := newReconciliationFixture()
	jan := f.env.db.addPayment(f.lease.ID, "12345", "2026-01-01", models.PaymentUnpaid)
	feb := f.env.db.addPayment(f.lease.ID, "12345", "2026-02-01", models.PaymentUnpaid)

	result := f.importCSV(t, header+"20.02.2026;15000;12345\n03.01.2026;15000;12345\n04.01.2026;15000;12345")

	require.Len(t, result.Matched, 2)
	assert.Equal(t, jan.ID, result.Matched[0].PaymentID)
	assert.Equal(t, feb.ID, result.Matched[1].PaymentID)
	assert.Equal(t, "2026-02-20", f.env.db.payment(jan.ID).PaidDate.Format("2006-01-02"))
	assert.Equal(t, "2026-01-03", f.env.db.payment(feb.ID).PaidDate.Format("2006-01-02"))
	require.Len(t, result.AlreadyPaid, 1)
	assert.Equal(t, 4, result.AlreadyPaid[0].Line)
}

func TestImport_UnparsableDateUsesToday(t *testing.T) {
	f := newReconciliationFixture()
	p := f.env.db.addPayment(f.lease.ID, "12345", "2026-03-01", models.PaymentUnpaid)

	result := f.importCSV(t, header+"yesterday;15000;12345")

	require.Len(t, result.Matched, 1)
	assert.Nil(t, result.Matched[0].Date)
	assert.Equal(t, "2026-03-20", f.env.db.payment(p.ID).PaidDate.Format("2006-01-02"))
}

func TestImport_UnparsableAmountStillMatches(t *testing.T) {
	f := newReconciliationFixture()
	p := f.env.db.addPayment(f.lease.ID, "12345", "2026-03-01", models.PaymentUnpaid)

	result := f.importCSV(t, header+"01.03.2026;n/a;12345")

	require.Len(t, result.Matched, 1)
	assert.True(t, result.Matched[0].Amount.IsZero())
	assert.Equal(t, p.ID, result.Matched[0].PaymentID)
	assert.Equal(t, models.PaymentPaid, f.env.db.payment(p.ID).Status)
}

func TestImport_OverduePaymentsAreNotSettled(t *testing.T) {
	f := newReconciliationFixture()
	p := f.env.db.addPayment(f.lease.ID, "12345", "2026-01-01", models.PaymentOverdue)

	result := f.importCSV(t, header+"01.03.2026;15000;12345")

	assert.Len(t, result.AlreadyPaid, 1)
	assert.Equal(t, models.PaymentOverdue, f.env.db.payment(p.ID).Status)
}

func TestImport_LostRaceMovesToNextPayment(t *testing.T) {
	f := newReconciliationFixture()
	jan := f.env.db.addPayment(f.lease.ID, "12345", "2026-01-01", models.PaymentUnpaid)
	feb := f.env.db.addPayment(f.lease.ID, "12345", "2026-02-01", models.PaymentUnpaid)

	raced := false
	f.env.db.beforeSettle = func(s models.Settlement) {
		if raced || s.PaymentID != jan.ID {
			return
		}
		raced = true
		// a manual mark-paid commits first
		f.env.db.mu.Lock()
		defer f.env.db.mu.Unlock()
		p := f.env.db.payments[jan.ID]
		paid := p.DueDate
		p.PaidDate = &paid
		p.Status = models.PaymentPaid
		p.Version++
	}

	result := f.importCSV(t, header+"01.03.2026;15000;12345")

	require.Len(t, result.Matched, 1)
	assert.Equal(t, feb.ID, result.Matched[0].PaymentID)
	assert.Equal(t, 2, f.env.db.settleCalls)
	assert.Empty(t, f.env.db.payment(jan.ID).Note)
}

func TestImport_GivesUpAfterRepeatedLostRaces(t *testing.T) {
	f := newReconciliationFixture()
	p := f.env.db.addPayment(f.lease.ID, "12345", "2026-01-01", models.PaymentUnpaid)
	f.env.db.beforeSettle = func(models.Settlement) {
		f.env.db.mu.Lock()
		defer f.env.db.mu.Unlock()
		f.env.db.payments[p.ID].Version++
	}

	result := f.importCSV(t, header+"01.03.2026;15000;12345")

	assert.Empty(t, result.Matched)
	assert.Len(t, result.AlreadyPaid, 1)
	assert.Equal(t, maxSettleAttempts, f.env.db.settleCalls)
}

func TestImport_StorageErrorOnRowDoesNotAbort(t *testing.T) {
	f := newReconciliationFixture()
	f.env.db.addPayment(f.lease.ID, "12345", "2026-01-01", models.PaymentUnpaid)
	f.env.db.findErr = errStorage

	result := f.importCSV(t, header+"01.03.2026;15000;12345\n01.03.2026;100;999")

	assert.Equal(t, 2, result.TotalRows)
	require.Len(t, result.Unmatched, 2)
	assert.Equal(t, models.ReasonStorageError, result.Unmatched[0].Reason)
	assert.Equal(t, "Variable symbol not found: 999", result.Unmatched[1].Reason)
}

func TestImport_IndexErrorAborts(t *testing.T) {
	f := newReconciliationFixture()
	f.env.db.leasesErr = errStorage

	_, err := f.env.reconciliation.Import(context.Background(), header+"01.03.2026;1;12345", f.landlord.ID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errStorage))
}

func TestImport_TotalRowsSkipsMalformedRows(t *testing.T) {
	f := newReconciliationFixture()

	result := f.importCSV(t, header+"\n01.03.2026;100\n01.03.2026;100;1;2\n\n01.03.2026;100;55\n")

	assert.Equal(t, 1, result.TotalRows)
	assert.Len(t, result.Unmatched, 1)
}

func TestImport_HeaderOnly(t *testing.T) {
	f := newReconciliationFixture()

	result := f.importCSV(t, header)

	assert.Zero(t, result.TotalRows)
	assert.NotNil(t, result.Matched)
	assert.NotNil(t, result.AlreadyPaid)
	assert.NotNil(t, result.Unmatched)
}

func TestImport_ArchivesRawAndResult(t *testing.T) {
	f := newReconciliationFixture()
	archiver := &memArchiver{}
	f.env.reconciliation.Archiver = archiver
	raw := header + "01.03.2026;100;999"

	result := f.importCSV(t, raw)

	assert.Equal(t, "batch-1", archiver.batchID)
	assert.Equal(t, raw, string(archiver.raw))
	var archived models.ReconciliationResult
	require.NoError(t, json.Unmarshal(archiver.result, &archived))
	assert.Equal(t, result.Summary(), archived.Summary())
}

func TestImport_ArchiveFailureIsIgnored(t *testing.T) {
	f := newReconciliationFixture()
	f.env.reconciliation.Archiver = &memArchiver{err: errStorage}

	result, err := f.env.reconciliation.Import(context.Background(), header+"01.03.2026;100;999", f.landlord.ID)

	require.NoError(t, err)
	assert.Len(t, result.Unmatched, 1)
}

func TestNewSymbolIndex(t *testing.T) {
	active := &models.Lease{ID: 1, VariableSymbol: "00042", Status: models.LeaseActive}
	ended := &models.Lease{ID: 2, VariableSymbol: "42", Status: models.LeaseEnded}
	blank := &models.Lease{ID: 3, VariableSymbol: " ", Status: models.LeaseActive}

	idx := NewSymbolIndex([]*models.Lease{active, ended, blank})

	assert.Len(t, idx, 1)
	assert.Same(t, active, idx["42"])
}
