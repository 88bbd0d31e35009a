package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultralog/ultralog/pkg/logmodel"
)

func newTestStore(t *testing.T) *Store {
	return NewStore(filepath.Join(t.TempDir(), "library.json"), nil)
}

func sampleLog() *logmodel.Log {
	return &logmodel.Log{
		Time: []float64{0, 0.1, 0.2},
		Channels: []logmodel.Channel{
			{RawName: "RPM", CanonicalName: "RPM", Kind: logmodel.KindNumeric},
			{RawName: "MAP", CanonicalName: "MAP", Kind: logmodel.KindNumeric},
		},
		Values: [][]logmodel.Cell{
			{logmodel.NumCell(1000), logmodel.NumCell(2000), logmodel.NumCell(3000)},
			{logmodel.NumCell(90), logmodel.NumCell(95), logmodel.NumCell(100)},
		},
		Metadata: []logmodel.Metadata{{}, {}},
	}
}

func TestStore_AddListRoundTrips(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Add(FormulaTemplate{Name: "Load", Formula: "RPM * MAP", Unit: "kPa*rpm"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Load", list[0].Name)
}

func TestStore_AddRejectsUnparseableFormula(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(FormulaTemplate{Name: "Bad", Formula: "RPM +"})
	assert.Error(t, err)
}

func TestStore_UpdateReplacesFieldsKeepsID(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Add(FormulaTemplate{Name: "Load", Formula: "RPM"})
	require.NoError(t, err)

	require.NoError(t, s.Update(id, FormulaTemplate{Name: "Load2", Formula: "RPM * 2"}))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Load2", list[0].Name)
}

func TestStore_UpdateUnknownIDIsNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Update("nope", FormulaTemplate{Name: "X", Formula: "RPM"})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStore_RemoveDeletesTemplate(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Add(FormulaTemplate{Name: "Load", Formula: "RPM"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))
	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	s1 := NewStore(path, nil)
	_, err := s1.Add(FormulaTemplate{Name: "Load", Formula: "RPM"})
	require.NoError(t, err)

	s2 := NewStore(path, nil)
	list, err := s2.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Load", list[0].Name)
}

func TestStore_InstantiateEvaluatesAgainstLog(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Add(FormulaTemplate{Name: "Load", Formula: "RPM * MAP", Unit: "kPa*rpm"})
	require.NoError(t, err)

	cc, err := s.Instantiate(id, sampleLog())
	require.NoError(t, err)
	assert.Equal(t, "Load", cc.Name)
	require.Len(t, cc.Values, 3)
	assert.Equal(t, 90000.0, cc.Values[0].Num)
}

func TestStore_InstantiateMissingReferenceErrors(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Add(FormulaTemplate{Name: "Boost", Formula: "TurboPressure - 14.7"})
	require.NoError(t, err)

	_, err = s.Instantiate(id, sampleLog())
	assert.Error(t, err)
}

func TestStore_InstantiateResolvesNestedComputedChannel(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(FormulaTemplate{Name: "Load", Formula: "RPM * MAP"})
	require.NoError(t, err)
	id2, err := s.Add(FormulaTemplate{Name: "LoadDoubled", Formula: "Load * 2"})
	require.NoError(t, err)

	cc, err := s.Instantiate(id2, sampleLog())
	require.NoError(t, err)
	require.Len(t, cc.Values, 3)
	assert.Equal(t, 180000.0, cc.Values[0].Num)
}

func TestStore_InstantiateCrossTemplateCycleIsRejected(t *testing.T) {
	s := newTestStore(t)
	idA, err := s.Add(FormulaTemplate{Name: "A", Formula: "B + 1"})
	require.NoError(t, err)
	_, err = s.Add(FormulaTemplate{Name: "B", Formula: "A + 1"})
	require.NoError(t, err)

	_, err = s.Instantiate(idA, sampleLog())
	assert.Error(t, err)
}

func TestStore_ApplyAllCompatibleSkipsUnresolvableAndCyclic(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(FormulaTemplate{Name: "Load", Formula: "RPM * MAP"})
	require.NoError(t, err)
	_, err = s.Add(FormulaTemplate{Name: "Bogus", Formula: "TurboPressure - 14.7"})
	require.NoError(t, err)
	_, err = s.Add(FormulaTemplate{Name: "A", Formula: "B + 1"})
	require.NoError(t, err)
	_, err = s.Add(FormulaTemplate{Name: "B", Formula: "A + 1"})
	require.NoError(t, err)

	results := s.ApplyAllCompatible(sampleLog())
	require.Len(t, results, 1)
	assert.Equal(t, "Load", results[0].Name)
}

func TestStore_ApplyAllCompatibleResolvesDependentInAnyLibraryOrder(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add(FormulaTemplate{Name: "LoadDoubled", Formula: "Load * 2"})
	require.NoError(t, err)
	_, err = s.Add(FormulaTemplate{Name: "Load", Formula: "RPM * MAP"})
	require.NoError(t, err)

	results := s.ApplyAllCompatible(sampleLog())
	require.Len(t, results, 2)

	byName := map[string]*ComputedChannel{}
	for _, r := range results {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "Load")
	require.Contains(t, byName, "LoadDoubled")
	assert.Equal(t, byName["Load"].Values[0].Num*2, byName["LoadDoubled"].Values[0].Num)
}
