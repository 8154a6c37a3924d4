package linearmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOLSRegression(t *testing.T) {
	tol := 1e-5
	testData := map[string]struct {
		x         *mat.Dense
		y         *mat.Dense
		opt       *OLSOptions
		intercept float64
		coef      []float64
	}{
		"ols model intercept": {
			x: mat.NewDense(5, 2, []float64{
				0, 0,
				3, 5,
				9, 20,
				12, 6,
				15, 10,
			}),
			y:         mat.NewDense(5, 1, []float64{2, 31, 109, 62, 87}),
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"ols model no intercept": {
			x: mat.NewDense(5, 3, []float64{
				1, 0, 0,
				1, 3, 5,
				1, 9, 20,
				1, 12, 6,
				1, 15, 10,
			}),
			y: mat.NewDense(5, 1, []float64{2, 31, 109, 62, 87}),
			opt: &OLSOptions{
				FitIntercept: false,
			},
			intercept: 0.0,
			coef:      []float64{2.0, 3.0, 4.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			model, err := NewOLSRegression(td.opt)
			require.Nil(t, err)
			require.Nil(t, model.Fit(td.x, td.y))

			assert.InDelta(t, td.intercept, model.Intercept(), tol)
			coef := model.Coef()
			require.Len(t, coef, len(td.coef))
			for i, c := range td.coef {
				assert.InDelta(t, c, coef[i], tol)
			}

			score, err := model.Score(td.x, td.y)
			require.Nil(t, err)
			assert.InDelta(t, 1.0, score, tol)
		})
	}
}

func TestOLSRegressionValidation(t *testing.T) {
	model, err := NewOLSRegression(nil)
	require.Nil(t, err)

	err = model.Fit(nil, nil)
	assert.ErrorIs(t, err, ErrNoTrainingMatrix)

	x := mat.NewDense(2, 1, []float64{1, 2})
	err = model.Fit(x, nil)
	assert.ErrorIs(t, err, ErrNoTargetMatrix)

	y := mat.NewDense(3, 1, []float64{1, 2, 3})
	err = model.Fit(x, y)
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}
