package predict

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"
)

const (
	// Some constants specific to the pre-trained model.
	// - The model was trained with images scaled to 224x224 pixels.
	// - Pixel values are scaled down to the [0, 1] range.
	// If using a different model, the values will have to be adjusted.
	inputHeight = 224
	inputWidth  = 224
)

type Predictor interface {
	Predict(imgData []byte) (float32, error)
	Close()
}

type TensorflowPredictor struct {
	graph    *tf.Graph
	session  *tf.Session
	inputOp  string
	outputOp string
}

func NewTensorflowPredictor() *TensorflowPredictor {
	return &TensorflowPredictor{}
}

// Load downloads the serialized graph once and keeps a session open for the
// lifetime of the process. Callers must treat a returned error as fatal; the
// predictor is unusable without a loaded graph.
func (p *TensorflowPredictor) Load(modelUrl string, inputOp string, outputOp string) error {
	model, err := fetchModel(modelUrl)
	if err != nil {
		log.Debug("[Predict] Couldn't fetch model: ", err.Error())
		return err
	}

	// Construct an in-memory graph from the serialized form.
	p.graph = tf.NewGraph()
	if err := p.graph.Import(model, ""); err != nil {
		log.Debug("[Predict] Couldn't construct graph: ", err.Error())
		return err
	}

	//verify the configured operation names up front so that a mismatch
	//surfaces at startup instead of on the first request
	if p.graph.Operation(inputOp) == nil {
		return fmt.Errorf("input operation %q not found in graph", inputOp)
	}
	if p.graph.Operation(outputOp) == nil {
		return fmt.Errorf("output operation %q not found in graph", outputOp)
	}
	p.inputOp = inputOp
	p.outputOp = outputOp

	// Create a session for inference over graph.
	p.session, err = tf.NewSession(p.graph, nil)
	if err != nil {
		log.Debug("[Predict] Couldn't start session: ", err.Error())
		return err
	}

	return nil
}

// Predict runs one forward pass and returns the cancer probability.
// session.Run is safe for concurrent use, so a single predictor can serve
// multiple workers at once.
func (p *TensorflowPredictor) Predict(imgData []byte) (float32, error) {
	tensor, err := makeTensorFromImage(imgData)
	if err != nil {
		log.Debug("[Predict] Couldn't create tensor from image: ", err.Error())
		return 0, err
	}

	output, err := p.session.Run(
		map[tf.Output]*tf.Tensor{
			p.graph.Operation(p.inputOp).Output(0): tensor,
		},
		[]tf.Output{
			p.graph.Operation(p.outputOp).Output(0),
		},
		nil)
	if err != nil {
		log.Debug("[Predict] Couldn't run image prediction: ", err.Error())
		return 0, err
	}

	return scalarFromOutput(output[0].Value())
}

// scalarFromOutput pulls the single probability out of the model output.
// The output is a vector containing probabilities for each image in the
// "batch"; the batch size was 1, the model emits a single scalar. A graph
// with a different output shape is reported as an error, not a panic.
func scalarFromOutput(value interface{}) (float32, error) {
	batch, ok := value.([][]float32)
	if !ok {
		return 0, fmt.Errorf("unexpected model output type %T", value)
	}
	if len(batch) == 0 || len(batch[0]) == 0 {
		return 0, fmt.Errorf("model returned an empty output vector")
	}

	return batch[0][0], nil
}

func (p *TensorflowPredictor) Close() {
	if p.session != nil {
		p.session.Close()
	}
}

func fetchModel(modelUrl string) ([]byte, error) {
	client := resty.New()
	resp, err := client.R().Get(modelUrl)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("model download failed with status %s", resp.Status())
	}

	return resp.Body(), nil
}

// Given an image, returns a Tensor which is suitable for
// providing the image data to the pre-defined model.
func makeTensorFromImage(imgData []byte) (*tf.Tensor, error) {
	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, err
	}

	//resize image to 224x224 (= size the model was trained on) with
	//bilinear interpolation
	img = imaging.Resize(img, inputWidth, inputHeight, imaging.Linear)

	sz := img.Bounds().Size()
	if sz.X != inputWidth || sz.Y != inputHeight {
		return nil, fmt.Errorf("input image is required to be %dx%d pixels, was %dx%d", inputWidth, inputHeight, sz.X, sz.Y)
	}

	// 4-dimensional input:
	// - 1st dimension: Batch size (the model takes a batch of images as
	//                  input, here the "batch size" is 1)
	// - 2nd dimension: Rows of the image
	// - 3rd dimension: Columns of the row
	// - 4th dimension: Colors of the pixel as (R, G, B), alpha is dropped
	// Thus, the shape is [1, 224, 224, 3]
	var ret [1][inputHeight][inputWidth][3]float32
	for y := 0; y < inputHeight; y++ {
		for x := 0; x < inputWidth; x++ {
			px := x + img.Bounds().Min.X
			py := y + img.Bounds().Min.Y
			r, g, b, _ := img.At(px, py).RGBA()
			ret[0][y][x][0] = float32(r>>8) / 255.0
			ret[0][y][x][1] = float32(g>>8) / 255.0
			ret[0][y][x][2] = float32(b>>8) / 255.0
		}
	}

	return tf.NewTensor(ret)
}
