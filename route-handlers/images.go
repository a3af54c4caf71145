package routehandlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/storage"
	"github.com/coreybb/denima/webutil"
	"go.uber.org/zap"
)

const (
	imageFormField = "image"
	// multipartOverhead allows for boundaries and part headers around the file.
	multipartOverhead = 1 << 20
	// multipartMemory is how much of a form is kept in memory before spilling to temp files.
	multipartMemory = 1 << 20
)

// Upload outcomes reported to an UploadObserver.
const (
	UploadStored   = "stored"
	UploadRejected = "rejected"
	UploadFailed   = "failed"
)

// UploadObserver counts upload outcomes.
type UploadObserver interface {
	ObserveUpload(result string)
}

type noopObserver struct{}

func (noopObserver) ObserveUpload(string) {}

// readSingleImage parses a multipart body holding exactly one file in the
// image field and validates it. Nothing is written to the image store here.
// The caller must invoke cleanup once the image body has been consumed.
func readSingleImage(w http.ResponseWriter, r *http.Request) (*storage.Image, func(), error) {
	noop := func() {}
	limit := int64(storage.MaxImageBytes + multipartOverhead)
	if r.ContentLength > limit {
		return nil, noop, storage.ErrImageTooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, storage.ErrImageTooLarge
		}
		return nil, noop, webutil.ErrValidation(imageFormField, "Request must be a multipart form with an image file")
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			zap.L().Warn("failed to remove multipart temp files", zap.Error(err))
		}
	}

	total := 0
	for _, files := range r.MultipartForm.File {
		total += len(files)
	}
	files := r.MultipartForm.File[imageFormField]
	if len(files) != 1 || total != 1 {
		cleanup()
		return nil, noop, webutil.ErrValidation(imageFormField, "Exactly one image file is required")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		cleanup()
		return nil, noop, webutil.ErrBadRequestWrap("Failed to read uploaded file", err)
	}

	img, err := storage.ValidateImage(header.Filename, header.Size, file)
	if err != nil {
		file.Close()
		cleanup()
		return nil, noop, err
	}
	return img, func() {
		file.Close()
		cleanup()
	}, nil
}

func isRejection(err error) bool {
	var upload *storage.UploadError
	var httpErr *webutil.HTTPError
	if errors.As(err, &upload) {
		return true
	}
	return errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError
}

// discardStored removes an object whose database record could not be written.
func discardStored(ctx context.Context, store storage.ImageStore, key string) {
	if err := store.Delete(context.WithoutCancel(ctx), key); err != nil {
		zap.L().Warn("failed to remove orphaned image", zap.String("key", key), zap.Error(err))
	}
}

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type ProductImageStore interface {
	AddImage(ctx context.Context, productID, storageKey, url string) (*models.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID string) (*models.ProductImage, error)
}

// Holds dependencies for product image upload and removal.
type ProductImageHandler struct {
	Products ProductLookup
	Images   ProductImageStore
	Store    storage.ImageStore
	Observer UploadObserver
}

func NewProductImageHandler(products ProductLookup, images ProductImageStore, store storage.ImageStore, observer UploadObserver) *ProductImageHandler {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ProductImageHandler{Products: products, Images: images, Store: store, Observer: observer}
}

func (h *ProductImageHandler) loadModifiable(r *http.Request) (*models.Product, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	id, err := pathUUID(r, paramID, "product")
	if err != nil {
		return nil, err
	}
	product, err := h.Products.GetProduct(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !product.CanBeModifiedBy(user) {
		return nil, webutil.ErrForbidden("You can only modify your own products")
	}
	return product, nil
}

// HandleUploadProductImage stores the file first, then records it. The first
// image of a product becomes its primary image. If recording fails the
// stored file is removed again.
func (h *ProductImageHandler) HandleUploadProductImage(w http.ResponseWriter, r *http.Request) error {
	product, err := h.loadModifiable(r)
	if err != nil {
		return err
	}

	img, done, err := readSingleImage(w, r)
	if err != nil {
		if isRejection(err) {
			h.Observer.ObserveUpload(UploadRejected)
		} else {
			h.Observer.ObserveUpload(UploadFailed)
		}
		return err
	}
	defer done()

	key := storage.NewImageKey(storage.ProductImagePrefix, img.Ext)
	url, err := h.Store.Save(r.Context(), key, img.Body, img.Size, img.ContentType)
	if err != nil {
		h.Observer.ObserveUpload(UploadFailed)
		return webutil.ErrInternalServerWrap("failed to store image", err)
	}

	record, err := h.Images.AddImage(r.Context(), product.ID, key, url)
	if err != nil {
		discardStored(r.Context(), h.Store, key)
		h.Observer.ObserveUpload(UploadFailed)
		return err
	}

	h.Observer.ObserveUpload(UploadStored)
	webutil.RespondWithJSON(w, http.StatusCreated, record)
	return nil
}

// HandleDeleteProductImage removes the record, then deletes the file best-effort.
func (h *ProductImageHandler) HandleDeleteProductImage(w http.ResponseWriter, r *http.Request) error {
	product, err := h.loadModifiable(r)
	if err != nil {
		return err
	}
	imageID, err := pathUUID(r, "imageID", "image")
	if err != nil {
		return err
	}

	removed, err := h.Images.DeleteImage(r.Context(), product.ID, imageID)
	if err != nil {
		return err
	}
	if err := h.Store.Delete(r.Context(), removed.StorageKey); err != nil {
		zap.L().Warn("failed to delete image file",
			zap.String("image_id", removed.ID),
			zap.String("key", removed.StorageKey),
			zap.Error(err))
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
	return nil
}

// UploadHandler serves the generic admin image upload used for service logos.
type UploadHandler struct {
	Store    storage.ImageStore
	Observer UploadObserver
}

func NewUploadHandler(store storage.ImageStore, observer UploadObserver) *UploadHandler {
	if observer == nil {
		observer = noopObserver{}
	}
	return &UploadHandler{Store: store, Observer: observer}
}

func (h *UploadHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) error {
	img, done, err := readSingleImage(w, r)
	if err != nil {
		if isRejection(err) {
			h.Observer.ObserveUpload(UploadRejected)
		} else {
			h.Observer.ObserveUpload(UploadFailed)
		}
		return err
	}
	defer done()

	key := storage.NewImageKey(storage.GenericImagePrefix, img.Ext)
	url, err := h.Store.Save(r.Context(), key, img.Body, img.Size, img.ContentType)
	if err != nil {
		h.Observer.ObserveUpload(UploadFailed)
		return webutil.ErrInternalServerWrap("failed to store image", err)
	}

	h.Observer.ObserveUpload(UploadStored)
	webutil.RespondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
	return nil
}
