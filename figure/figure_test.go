package figure

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-aid/geoaid/lower"
	"github.com/geo-aid/geoaid/parser"
	"github.com/geo-aid/geoaid/unroll"
)

func build(t *testing.T, src string) *lower.Program {
	t.Helper()
	p, err := parser.New(strings.NewReader(src))
	require.NoError(t, err)
	f, err := p.Parse()
	require.NoError(t, err)
	up, err := unroll.New().Unroll(f)
	require.NoError(t, err)
	lp, err := lower.Lower(up)
	require.NoError(t, err)
	return lp
}

func TestBuildEmitsEntitiesExpressionsAndPointLineItems(t *testing.T) {
	lp := build(t, `
let A, B = Point();
let k = line(A, B);
? A;
? B;
? k;
`)
	// A, B each own 2 adjustable slots (FreePoint), in declaration order.
	doc, err := Build(lp, []float64{0, 0, 3, 4}, 800, 600)
	require.NoError(t, err)

	assert.Equal(t, 800.0, doc.Width)
	assert.Equal(t, 600.0, doc.Height)
	require.Len(t, doc.Entities, 2)
	for _, e := range doc.Entities {
		assert.Equal(t, "free-point", e.Kind)
	}

	var line *Expression
	for i, e := range doc.Expressions {
		if e.Kind == "point-point-line" {
			line = &doc.Expressions[i]
		}
	}
	require.NotNil(t, line)
	require.NotNil(t, line.Hint.OriginX)
	require.NotNil(t, line.Hint.DirX)

	kinds := map[string]int{}
	for _, item := range doc.Items {
		kinds[item.Kind]++
	}
	assert.Equal(t, 2, kinds["point"])
	assert.Equal(t, 1, kinds["line"])
	for _, item := range doc.Items {
		assert.Equal(t, defaultStyle, item.Style)
		assert.Nil(t, item.Label)
	}
}

func TestBuildAppliesStyleAndLabelProperties(t *testing.T) {
	lp := build(t, `
let A = point() [style = dashed, label = foo];
? A;
`)
	doc, err := Build(lp, []float64{1, 2}, 800, 600)
	require.NoError(t, err)

	require.Len(t, doc.Items, 1)
	item := doc.Items[0]
	assert.Equal(t, "point", item.Kind)
	assert.Equal(t, "dashed", item.Style)
	require.NotNil(t, item.Label)
	assert.Equal(t, "foo", item.Label.Content)
	assert.Equal(t, defaultLabelPosition, item.Label.Position)
}

func TestBuildEmitsSegmentItemFromLiesOnSegmentRule(t *testing.T) {
	lp := build(t, `
let A, B, X = Point();
X lies_on segment(A, B);
? A;
? B;
? X;
`)
	doc, err := Build(lp, []float64{0, 0, 10, 0, 5, 5}, 800, 600)
	require.NoError(t, err)

	var seg *Item
	for i, item := range doc.Items {
		if item.Kind == "segment" {
			seg = &doc.Items[i]
		}
	}
	require.NotNil(t, seg)
	assert.Len(t, seg.Points, 2)
}

func TestBuildOmitsExpressionsOutsideFigureReach(t *testing.T) {
	lp := build(t, `
let A, B = Point();
let d = dst(A, B);
? A;
`)
	doc, err := Build(lp, []float64{0, 0, 3, 4}, 800, 600)
	require.NoError(t, err)

	for _, e := range doc.Expressions {
		assert.NotEqual(t, "point-point-distance", e.Kind)
	}
}

func TestBuildConstExpressionCarriesItsLiteralValue(t *testing.T) {
	lp := build(t, `
let s = 1cm + 2cm;
? s;
`)
	doc, err := Build(lp, nil, 800, 600)
	require.NoError(t, err)

	require.Len(t, doc.Expressions, 1)
	e := doc.Expressions[0]
	assert.Equal(t, "const", e.Kind)
	assert.InDelta(t, 3.0, e.Const, 1e-9)
	require.NotNil(t, e.Hint.Value)
	assert.InDelta(t, 3.0, *e.Hint.Value, 1e-9)
}

// A Document survives a JSON round trip unchanged. cmp.Diff gives a
// field-by-field report on failure, which testify's assert.Equal (plain
// reflect.DeepEqual) doesn't for a struct this deep with this many
// optional pointer fields (every Hint variant).
func TestDocumentRoundTripsThroughJSON(t *testing.T) {
	lp := build(t, `
let A, B = Point();
let k = line(A, B);
? A;
? k;
`)
	doc, err := Build(lp, []float64{0, 0, 3, 4}, 800, 600)
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var roundTripped Document
	require.NoError(t, json.Unmarshal(data, &roundTripped))

	if diff := cmp.Diff(doc, &roundTripped); diff != "" {
		t.Fatalf("round trip changed the document (-want +got):\n%s", diff)
	}
}
