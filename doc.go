// Package gboost provides gradient boosted regression trees for Go,
// with a scikit-learn-like API built on gonum matrices.
//
// The library is organized around two learners: a regression tree with
// exhaustive split search (package tree) and a gradient boosting ensemble
// built on top of it (package ensemble). Supporting packages cover model
// evaluation (modelselection), regression metrics (metrics), feature
// scaling (preprocessing), a linear baseline (linear) and dataset loading
// from CSV and NumPy files (dataset).
//
// # Quick Start
//
// Training a boosted ensemble:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/gboost-ml/gboost/ensemble"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := mat.NewDense(4, 1, []float64{1, 1, 10, 10})
//
//	    gbt := ensemble.NewGradientBoostingTree(
//	        ensemble.WithNEstimators(50),
//	        ensemble.WithLearningRate(0.1),
//	        ensemble.WithMaxDepth(2),
//	    )
//	    if err := gbt.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := gbt.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(pred))
//	}
//
// Training is deterministic: the same data and parameters always produce the
// same ensemble. Randomness appears only in the evaluation utilities of
// modelselection, where it is driven by explicit seeds.
package gboost
