package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/chart"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
)

func main() {
	modelType := flag.String("model_type", ml.ModelTypeRandomForest, "model type: random_forest, decision_tree or onnx")
	modelPath := flag.String("model_path", "iwakRf.json", "classifier artifact path")
	encoderPath := flag.String("encoder_path", "label_encoder.json", "label encoder artifact path")
	onnxLibrary := flag.String("onnx_library", "", "onnxruntime shared library path")
	length := flag.Float64("length", 50, "fish length (cm)")
	weight := flag.Float64("weight", 10, "fish weight (kg)")
	ratio := flag.Float64("w_l_ratio", 0.2, "weight to length ratio")
	dataPath := flag.String("data", "", "optional labelled CSV (length,weight,w_l_ratio,species) to evaluate")
	chartPath := flag.String("chart", "", "optional output path for the probability chart (.svg or .png)")
	flag.Parse()

	if *onnxLibrary != "" {
		ml.SetONNXLibraryPath(*onnxLibrary)
	}
	store := ml.NewArtifactStore(ml.StoreConfig{
		ModelType:   *modelType,
		ModelPath:   *modelPath,
		EncoderPath: *encoderPath,
	}, nil)
	defer store.Close()

	artifacts, err := store.Load()
	if err != nil {
		log.Fatalf("artifacts not usable: %v", err)
	}
	classes := artifacts.Model.Classes()
	species, err := artifacts.Decoder.InverseTransform(classes)
	if err != nil {
		log.Fatalf("failed to decode classes: %v", err)
	}
	fmt.Printf("features: %s\n", strings.Join(artifacts.Model.FeatureNames(), ", "))
	for i, class := range classes {
		fmt.Printf("class %d: %s\n", class, species[i])
	}

	predictor, err := predict.NewPredictor(store, 1, nil)
	if err != nil {
		log.Fatalf("failed to create predictor: %v", err)
	}
	row := ml.FeatureRow{Length: *length, Weight: *weight, WLRatio: *ratio}
	result, err := predictor.Predict(context.Background(), row)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}
	fmt.Printf("prediction for %+v: %s\n", row, result.Species)
	for _, p := range result.Probabilities {
		fmt.Printf("  %-12s %6.2f%%\n", p.Label, p.Percentage)
	}

	if *chartPath != "" {
		if err := writeChart(*chartPath, result); err != nil {
			log.Fatalf("failed to write chart: %v", err)
		}
		fmt.Printf("chart saved to %s\n", *chartPath)
	}

	if *dataPath != "" {
		rows, labels, err := readDataset(*dataPath)
		if err != nil {
			log.Fatalf("failed to read dataset: %v", err)
		}
		accuracy, perClass := evaluateModel(artifacts, rows, labels)
		log.Printf("accuracy=%.2f samples=%d", accuracy, len(rows))
		for _, name := range species {
			if recall, ok := perClass[name]; ok {
				log.Printf("recall[%s]=%.2f", name, recall)
			}
		}
	}
}

func writeChart(path string, result *predict.Result) error {
	opts := chart.DefaultOptions()
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		opts.Format = chart.FormatPNG
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	bars := make([]chart.Bar, len(result.Probabilities))
	for i, p := range result.Probabilities {
		bars[i] = chart.Bar{Label: p.Label, Value: p.Percentage}
	}
	if err := chart.Render(file, bars, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// readDataset reads rows of length,weight,w_l_ratio,species. A header row is
// skipped when its first field is not a number.
func readDataset(path string) ([]ml.FeatureRow, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var (
		rows   []ml.FeatureRow
		labels []string
	)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		values := make([]float64, 3)
		for i := range values {
			values[i], err = strconv.ParseFloat(record[i], 64)
			if err != nil {
				break
			}
		}
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, ml.FeatureRow{Length: values[0], Weight: values[1], WLRatio: values[2]})
		labels = append(labels, strings.TrimSpace(record[3]))
	}
	return rows, labels, nil
}

func evaluateModel(artifacts *ml.Artifacts, rows []ml.FeatureRow, labels []string) (accuracy float64, recall map[string]float64) {
	recall = make(map[string]float64)
	if len(rows) == 0 {
		return 0, recall
	}

	correct := 0
	seen := make(map[string]int)
	hits := make(map[string]int)
	for i, row := range rows {
		seen[labels[i]]++
		class, err := artifacts.Model.Predict(row)
		if err != nil {
			continue
		}
		names, err := artifacts.Decoder.InverseTransform([]int{class})
		if err != nil {
			continue
		}
		if names[0] == labels[i] {
			correct++
			hits[labels[i]]++
		}
	}

	for name, total := range seen {
		recall[name] = float64(hits[name]) / float64(total)
	}
	return float64(correct) / float64(len(rows)), recall
}
