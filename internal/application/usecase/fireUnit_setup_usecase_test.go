package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

// memRepo は fudom.Repository のインメモリ実装（テスト用）です。
type memRepo struct {
	units     []fudom.FireUnit
	nextID    int
	listErr   error
	updateErr map[string]error // id -> error
	existsErr map[string]error // code -> error
	createErr map[string]error // code -> error

	updates int
	creates int
}

func (m *memRepo) ListAll(ctx context.Context) ([]fudom.FireUnit, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]fudom.FireUnit, len(m.units))
	copy(out, m.units)
	return out, nil
}

func (m *memRepo) ListActive(ctx context.Context) ([]fudom.FireUnit, error) {
	var out []fudom.FireUnit
	for _, u := range m.units {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if err := m.existsErr[code]; err != nil {
		return false, err
	}
	for _, u := range m.units {
		if u.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Count(ctx context.Context) (int, error) {
	return len(m.units), nil
}

func (m *memRepo) Create(ctx context.Context, u fudom.FireUnit) (fudom.FireUnit, error) {
	if err := m.createErr[u.Code]; err != nil {
		return fudom.FireUnit{}, err
	}
	m.creates++
	m.nextID++
	u.ID = fmt.Sprintf("doc-%d", m.nextID)
	m.units = append(m.units, u)
	return u, nil
}

func (m *memRepo) Update(ctx context.Context, id string, patch fudom.FireUnitPatch) (fudom.FireUnit, error) {
	if err := m.updateErr[id]; err != nil {
		return fudom.FireUnit{}, err
	}
	for i := range m.units {
		if m.units[i].ID != id {
			continue
		}
		m.updates++
		if patch.IsActive != nil {
			m.units[i].IsActive = *patch.IsActive
		}
		if patch.UpdatedAt != nil {
			t := *patch.UpdatedAt
			m.units[i].UpdatedAt = &t
		}
		return m.units[i], nil
	}
	return fudom.FireUnit{}, fudom.ErrNotFound
}

type recordingSink struct {
	reports  []SetupResult
	notifies []SetupResult
	err      error
}

func (s *recordingSink) Report(ctx context.Context, res SetupResult) error {
	s.reports = append(s.reports, res)
	return s.err
}

func (s *recordingSink) NotifySetup(ctx context.Context, res SetupResult) error {
	s.notifies = append(s.notifies, res)
	return s.err
}

var fixedNow = time.Date(2025, 8, 20, 15, 4, 5, 0, time.UTC)

func newTestUsecase(repo fudom.Repository) (*FireUnitSetupUsecase, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	uc := NewFireUnitSetupUsecase(repo, zap.New(core)).
		WithClock(func() time.Time { return fixedNow })
	return uc, logs
}

func seedUnits(n int) []fudom.FireUnit {
	out := make([]fudom.FireUnit, 0, n)
	for i := 1; i <= n; i++ {
		u, err := fudom.NewFireUnit(
			fmt.Sprintf("%dº Grupamento de Bombeiros Militar", i),
			fmt.Sprintf("%dº GBM", i),
			"Rua", "Goiânia", "GO", "(62) 3201-6500",
			fmt.Sprintf("%dgbm@bombeiros.go.gov.br", i),
			"Comandante", "Major", true,
		)
		if err != nil {
			panic(err)
		}
		out = append(out, u)
	}
	return out
}

func TestActivateExisting_ActivatesOnlyInactive(t *testing.T) {
	repo := &memRepo{units: []fudom.FireUnit{
		{ID: "a", Code: "1º GBM", Name: "Um", IsActive: true},
		{ID: "b", Code: "2º GBM", Name: "Dois", IsActive: false},
		{ID: "c", Code: "3º GBM", Name: "Três"},
	}}
	uc, _ := newTestUsecase(repo)

	res, err := uc.ActivateExisting(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Activated)
	assert.Equal(t, 1, res.AlreadyActive)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, repo.updates)

	for _, u := range repo.units {
		assert.True(t, u.IsActive, u.Code)
	}
	require.NotNil(t, repo.units[1].UpdatedAt)
	assert.True(t, repo.units[1].UpdatedAt.Equal(fixedNow))
	assert.Nil(t, repo.units[0].UpdatedAt, "already active unit must not be touched")
}

func TestActivateExisting_ContinuesAfterItemFailure(t *testing.T) {
	boom := errors.New("permission denied")
	repo := &memRepo{
		units: []fudom.FireUnit{
			{ID: "a", Code: "1º GBM"},
			{ID: "b", Code: "2º GBM"},
		},
		updateErr: map[string]error{"a": boom},
	}
	uc, logs := newTestUsecase(repo)

	res, err := uc.ActivateExisting(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Activated)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "1º GBM", res.Failures[0].Code)
	assert.ErrorIs(t, res.Failures[0].Err, boom)
	assert.True(t, repo.units[1].IsActive)
	assert.Equal(t, 1, logs.FilterMessageSnippet("failed to activate").Len())
}

func TestActivateExisting_ListErrorIsFatal(t *testing.T) {
	repo := &memRepo{listErr: errors.New("unavailable")}
	uc, _ := newTestUsecase(repo)

	_, err := uc.ActivateExisting(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list units")
}

func TestAddMissing_SkipsExistingCodes(t *testing.T) {
	seeds := seedUnits(3)
	repo := &memRepo{units: []fudom.FireUnit{{ID: "x", Code: "2º GBM", IsActive: true}}}
	uc, _ := newTestUsecase(repo)

	res, err := uc.AddMissing(context.Background(), seeds)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 1, res.Existing)
	assert.Empty(t, res.Failures)
	require.Len(t, repo.units, 3)

	added := repo.units[1]
	assert.Equal(t, "1º GBM", added.Code)
	assert.True(t, added.CreatedAt.Equal(fixedNow))
	assert.Nil(t, added.UpdatedAt)
	assert.NotEmpty(t, added.ID)
}

func TestAddMissing_LogsSeedCodes(t *testing.T) {
	uc, logs := newTestUsecase(&memRepo{})

	_, err := uc.AddMissing(context.Background(), seedUnits(2))
	require.NoError(t, err)

	entries := logs.FilterMessageSnippet("checking which fire units").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"1º GBM", "2º GBM"}, entries[0].ContextMap()["codes"])
}

func TestAddMissing_IsIdempotent(t *testing.T) {
	seeds := seedUnits(5)
	repo := &memRepo{}
	uc, _ := newTestUsecase(repo)

	first, err := uc.AddMissing(context.Background(), seeds)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Added)

	second, err := uc.AddMissing(context.Background(), seeds)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 5, second.Existing)
	assert.Len(t, repo.units, 5)
}

func TestAddMissing_LogsAndContinuesOnErrors(t *testing.T) {
	seeds := seedUnits(3)
	repo := &memRepo{
		existsErr: map[string]error{"1º GBM": errors.New("query failed")},
		createErr: map[string]error{"2º GBM": errors.New("write failed")},
	}
	uc, _ := newTestUsecase(repo)

	res, err := uc.AddMissing(context.Background(), seeds)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "1º GBM", res.Failures[0].Code)
	assert.Equal(t, "2º GBM", res.Failures[1].Code)
	assert.Equal(t, "3º GBM", repo.units[0].Code)
}

func TestAddMissing_RejectsSeedWithoutCode(t *testing.T) {
	repo := &memRepo{}
	uc, _ := newTestUsecase(repo)

	res, err := uc.AddMissing(context.Background(), []fudom.FireUnit{{Name: "Sem código"}})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0].Err, fudom.ErrInvalidCode)
	assert.Zero(t, repo.creates)
}

func TestSetup_AddsWhenBelowThreshold(t *testing.T) {
	repo := &memRepo{units: []fudom.FireUnit{
		{ID: "a", Code: "1º GBM", Name: "1º Grupamento de Bombeiros Militar"},
	}}
	sink := &recordingSink{}
	uc, _ := newTestUsecase(repo)
	uc.WithRunID("run-1").WithReporter(sink).WithNotifier(sink)

	res, err := uc.Setup(context.Background(), seedUnits(5), 5)
	require.NoError(t, err)

	assert.False(t, res.InsertSkipped)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 1, res.Activation.Activated)
	assert.Equal(t, 4, res.Insert.Added)
	assert.Equal(t, 1, res.Insert.Existing)
	require.Len(t, res.Active, 5)
	assert.Equal(t, []string{"1º GBM", "2º GBM", "3º GBM", "4º GBM", "5º GBM"}, fudom.Codes(res.Active))
	assert.Zero(t, res.FailureCount())

	require.Len(t, sink.reports, 1)
	require.Len(t, sink.notifies, 1)
	assert.Len(t, sink.reports[0].Active, 5)
}

func TestSetup_SkipsInsertAtThreshold(t *testing.T) {
	existing := seedUnits(5)
	for i := range existing {
		existing[i].ID = fmt.Sprintf("id-%d", i)
		existing[i].IsActive = i%2 == 0
	}
	repo := &memRepo{units: existing}
	uc, logs := newTestUsecase(repo)

	res, err := uc.Setup(context.Background(), seedUnits(5), 5)
	require.NoError(t, err)

	assert.True(t, res.InsertSkipped)
	assert.Zero(t, repo.creates)
	assert.Equal(t, 2, res.Activation.Activated)
	assert.Len(t, res.Active, 5)
	assert.Equal(t, 1, logs.FilterMessageSnippet("skipping insert").Len())
}

func TestSetup_RejectsNonPositiveMinUnits(t *testing.T) {
	for _, n := range []int{0, -3} {
		repo := &memRepo{units: []fudom.FireUnit{{ID: "a", Code: "1º GBM"}}}
		uc, _ := newTestUsecase(repo)

		_, err := uc.Setup(context.Background(), seedUnits(5), n)
		assert.ErrorIs(t, err, ErrInvalidMinUnits)
		assert.Zero(t, repo.updates)
		assert.Zero(t, repo.creates)
	}
}

func TestSetup_DryRunWritesNothing(t *testing.T) {
	repo := &memRepo{units: []fudom.FireUnit{{ID: "a", Code: "1º GBM"}}}
	uc, logs := newTestUsecase(repo)
	uc.WithDryRun(true)

	res, err := uc.Setup(context.Background(), seedUnits(5), 5)
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Activation.Activated)
	assert.Equal(t, 4, res.Insert.Added)
	assert.Zero(t, repo.updates)
	assert.Zero(t, repo.creates)
	assert.Empty(t, res.Active)

	dry := 0
	for _, e := range logs.All() {
		if strings.Contains(e.Message, "[dry-run]") {
			dry++
		}
	}
	assert.Equal(t, 5, dry)
}

func TestSetup_SinkErrorsDoNotFailSetup(t *testing.T) {
	repo := &memRepo{}
	sink := &recordingSink{err: errors.New("smtp down")}
	uc, logs := newTestUsecase(repo)
	uc.WithReporter(sink).WithNotifier(sink)

	_, err := uc.Setup(context.Background(), seedUnits(1), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestSetup_CancelledContext(t *testing.T) {
	repo := &memRepo{units: []fudom.FireUnit{{ID: "a", Code: "1º GBM"}}}
	uc, _ := newTestUsecase(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Setup(ctx, seedUnits(5), 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, repo.updates)
}

func TestOverview(t *testing.T) {
	repo := &memRepo{units: []fudom.FireUnit{
		{ID: "a", Code: "3º GBM", IsActive: true},
		{ID: "b", Code: "1º GBM", IsActive: true},
		{ID: "c", Code: "2º GBM"},
	}}
	uc, _ := newTestUsecase(repo)

	ov, err := uc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ov.Total)
	require.Len(t, ov.Active, 2)
	assert.Equal(t, "1º GBM", ov.Active[0].Code)
	assert.Zero(t, repo.updates)
}
