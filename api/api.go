package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Amrl666/asclepius-be/datastructures"
	"github.com/Amrl666/asclepius-be/storage"
)

// maxUploadBytes caps the request body before multipart parsing starts.
const maxUploadBytes = 1000000

// Predictor is what the handler needs from the inference side: one forward
// pass that honors the request's deadline.
type Predictor interface {
	Predict(ctx context.Context, imgData []byte) (float32, error)
}

type API struct {
	predictor      Predictor
	recorder       *storage.Recorder
	requestTimeout time.Duration
}

func NewAPI(predictor Predictor, recorder *storage.Recorder, requestTimeout time.Duration) *API {
	return &API{
		predictor:      predictor,
		recorder:       recorder,
		requestTimeout: requestTimeout,
	}
}

func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), Recovery())

	router.NoRoute(notFound)

	router.GET("/health", a.health)
	router.POST("/predict", limitBodySize(maxUploadBytes), a.predict)

	return router
}

// health reports liveness only and deliberately ignores model and database
// state.
func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, datastructures.APIResponse{
		Status:  "success",
		Message: "Server is running smoothly",
	})
}

func (a *API) predict(c *gin.Context) {
	//FormFile drives the whole multipart parse, so this is where a broken
	//upload stream or malformed body surfaces. Only a genuinely absent field
	//is a validation failure; everything else aborts with the error envelope
	//and never reaches inference with a partial buffer.
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			fail(c, http.StatusRequestEntityTooLarge, "Image exceeds the upload size limit")
		case errors.Is(err, http.ErrMissingFile):
			fail(c, http.StatusBadRequest, "Image not provided")
		default:
			log.Error("[Api] Couldn't read image upload: ", err.Error())
			internalError(c, err)
		}
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		fail(c, http.StatusBadRequest, "Invalid image format. Please upload a valid image.")
		return
	}

	log.Debug("[Api] Received image ", header.Filename, " (", header.Size, " bytes, ", mimeType, ")")

	//the part is already fully buffered at this point, but larger uploads
	//are spooled to a temp file, so the read can still fail
	imgData, err := io.ReadAll(file)
	if err != nil {
		log.Error("[Api] Couldn't read image stream: ", err.Error())
		internalError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), a.requestTimeout)
	defer cancel()

	probability, err := a.predictor.Predict(ctx, imgData)
	if err != nil {
		log.Error("[Api] Couldn't predict: ", err.Error())
		internalError(c, err)
		return
	}

	record, err := a.recorder.Record(ctx, probability)
	if err != nil {
		log.Error("[Api] Couldn't record prediction: ", err.Error())
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, datastructures.APIResponse{
		Status:  "success",
		Message: "Model is predicted successfully",
		Data:    record,
	})
}
