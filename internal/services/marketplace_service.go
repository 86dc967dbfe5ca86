package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"businessconnect_backend/internal/cache"
	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/imageprocessor"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/metrics"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/internal/storage"
	"businessconnect_backend/pkg/apperrors"
)

type MarketplaceConfig struct {
	ReportThreshold     int
	MaxImages           int
	RequireSubscription bool
	MaxUploadSize       int64
	AllowedTypes        []string
}

func DefaultMarketplaceConfig() MarketplaceConfig {
	return MarketplaceConfig{
		ReportThreshold:     5,
		MaxImages:           5,
		RequireSubscription: true,
		MaxUploadSize:       5 * 1024 * 1024,
		AllowedTypes:        []string{"image/jpeg", "image/png"},
	}
}

// ReportResult is returned to the reporter.
type ReportResult struct {
	Reports   int  `json:"reports"`
	Suspended bool `json:"suspended"`
}

type MarketplaceService interface {
	// ListItems shows approved items only, unless the actor is an admin.
	ListItems(db *gorm.DB, actor *Actor, req *dto.ItemSearchRequest) (*dto.ListResponse[models.MarketplaceItem], error)
	GetItem(ctx context.Context, db *gorm.DB, actor *Actor, itemID string) (*models.MarketplaceItem, error)
	CreateItem(ctx context.Context, db *gorm.DB, actor Actor, req *dto.CreateItemRequest) (*models.MarketplaceItem, error)
	UpdateItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string, req *dto.UpdateItemRequest) (*models.MarketplaceItem, error)
	DeleteItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string) error
	MyItems(db *gorm.DB, actor Actor, page dto.PageRequest) (*dto.ListResponse[models.MarketplaceItem], error)

	ModerateItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string, req *dto.ModerateItemRequest) (*models.MarketplaceItem, error)
	ReportItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string, req *dto.ReportItemRequest) (*ReportResult, error)

	AddImage(ctx context.Context, db *gorm.DB, actor Actor, itemID string, upload dto.ImageUpload, reader io.Reader) (*models.MarketplaceItem, error)
	DeleteImage(ctx context.Context, db *gorm.DB, actor Actor, itemID string, index int) (*models.MarketplaceItem, error)
}

type MarketplaceServiceImpl struct {
	itemRepo         repositories.MarketplaceRepository
	subscriptionRepo repositories.SubscriptionRepository
	storage          storage.Storage
	processor        *imageprocessor.Processor
	itemCache        *cache.ItemCache
	notifications    NotificationService
	publisher        events.Publisher
	metrics          *metrics.Metrics
	config           MarketplaceConfig
}

func NewMarketplaceService(
	itemRepo repositories.MarketplaceRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	store storage.Storage,
	processor *imageprocessor.Processor,
	itemCache *cache.ItemCache,
	notifications NotificationService,
	publisher events.Publisher,
	m *metrics.Metrics,
	config MarketplaceConfig,
) MarketplaceService {
	defaults := DefaultMarketplaceConfig()
	if config.ReportThreshold <= 0 {
		config.ReportThreshold = defaults.ReportThreshold
	}
	if config.MaxImages <= 0 {
		config.MaxImages = defaults.MaxImages
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = defaults.MaxUploadSize
	}
	if len(config.AllowedTypes) == 0 {
		config.AllowedTypes = defaults.AllowedTypes
	}
	if processor == nil {
		processor = imageprocessor.NewProcessor(85)
	}
	if itemCache == nil {
		itemCache = cache.NewItemCache(nil, 0)
	}
	return &MarketplaceServiceImpl{
		itemRepo:         itemRepo,
		subscriptionRepo: subscriptionRepo,
		storage:          store,
		processor:        processor,
		itemCache:        itemCache,
		notifications:    notifications,
		publisher:        publisher,
		metrics:          m,
		config:           config,
	}
}

// ---------------- Items ----------------

func (s *MarketplaceServiceImpl) ListItems(db *gorm.DB, actor *Actor, req *dto.ItemSearchRequest) (*dto.ListResponse[models.MarketplaceItem], error) {
	req.Normalize()
	status := models.ItemStatusApproved
	if actor != nil && actor.IsAdmin() {
		status = req.Status
	}

	items, total, err := s.itemRepo.FindWithFilter(db, repositories.ItemFilter{
		Status:   status,
		Search:   req.Search,
		Category: req.Category,
		Location: req.Location,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(items, req.Page, req.PageSize, total), nil
}

// GetItem returns approved items to everyone and other items to their seller
// and admins only.
func (s *MarketplaceServiceImpl) GetItem(ctx context.Context, db *gorm.DB, actor *Actor, itemID string) (*models.MarketplaceItem, error) {
	item, cached := s.itemCache.Get(ctx, itemID)
	if !cached {
		var err error
		item, err = s.findItem(db, itemID)
		if err != nil {
			return nil, err
		}
	}

	if item.Status != models.ItemStatusApproved {
		if actor == nil || !actor.CanModify(item.SellerID) {
			return nil, apperrors.ErrItemNotFound
		}
		return item, nil
	}

	if err := s.itemRepo.IncrementViews(db, itemID); err != nil {
		logger.CtxWithError(ctx, "Failed to increment item views", err, "item_id", itemID)
	}
	if !cached {
		s.itemCache.Set(ctx, item)
	}
	return item, nil
}

func (s *MarketplaceServiceImpl) CreateItem(ctx context.Context, db *gorm.DB, actor Actor, req *dto.CreateItemRequest) (*models.MarketplaceItem, error) {
	if err := s.requireSubscription(db, actor); err != nil {
		return nil, err
	}

	item := &models.MarketplaceItem{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     strings.TrimSpace(req.Category),
		Price:        req.Price,
		Currency:     "XOF",
		Location:     req.Location,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Images:       []models.MarketplaceImage{},
		SellerID:     actor.UserID,
		Status:       models.ItemStatusPending,
	}
	if err := s.itemRepo.Create(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Marketplace item created", "item_id", item.ID)
	events.Emit(ctx, s.publisher, events.SubjectMarketplaceItemCreated, map[string]interface{}{
		"itemId":   item.ID,
		"sellerId": item.SellerID,
		"category": item.Category,
	})
	return item, nil
}

func (s *MarketplaceServiceImpl) UpdateItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string, req *dto.UpdateItemRequest) (*models.MarketplaceItem, error) {
	item, err := s.findModifiable(db, actor, itemID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.ContactPhone != nil {
		item.ContactPhone = *req.ContactPhone
	}
	if req.ContactEmail != nil {
		item.ContactEmail = *req.ContactEmail
	}

	// seller edits go back through moderation
	if !actor.IsAdmin() && item.Status != models.ItemStatusPending {
		item.Status = models.ItemStatusPending
	}

	if err := s.itemRepo.Update(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	s.itemCache.Invalidate(ctx, itemID)
	return item, nil
}

func (s *MarketplaceServiceImpl) DeleteItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string) error {
	item, err := s.findModifiable(db, actor, itemID)
	if err != nil {
		return err
	}
	if err := s.itemRepo.Delete(db, itemID); err != nil {
		return handleItemError(err)
	}
	s.itemCache.Invalidate(ctx, itemID)

	for _, img := range item.Images {
		s.deleteStored(ctx, img.Path, img.ThumbnailPath)
	}
	logger.CtxInfo(ctx, "Marketplace item deleted", "item_id", itemID)
	return nil
}

func (s *MarketplaceServiceImpl) MyItems(db *gorm.DB, actor Actor, page dto.PageRequest) (*dto.ListResponse[models.MarketplaceItem], error) {
	page.Normalize()
	items, total, err := s.itemRepo.FindWithFilter(db, repositories.ItemFilter{
		SellerID: actor.UserID,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(items, page.Page, page.PageSize, total), nil
}

// ---------------- Moderation ----------------

func (s *MarketplaceServiceImpl) ModerateItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string, req *dto.ModerateItemRequest) (*models.MarketplaceItem, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if !req.Status.IsValid() {
		return nil, apperrors.ErrInvalidStatus("marketplace", "Unknown item status")
	}

	item, err := s.findItem(db, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	previous := item.Status
	item.Status = req.Status
	item.ModerationReason = req.Reason
	item.ModeratedBy = actor.UserID
	item.ModeratedAt = &now
	if err := s.itemRepo.Update(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	s.itemCache.Invalidate(ctx, itemID)
	s.metrics.ItemModerated(string(req.Status))

	logger.CtxInfo(ctx, "Marketplace item moderated", "item_id", itemID, "from", previous, "to", req.Status)

	message := fmt.Sprintf("Votre annonce « %s » est maintenant : %s.", item.Title, itemStatusLabel(req.Status))
	if req.Reason != "" {
		message += " Motif : " + req.Reason
	}
	s.notify(ctx, db, Notice{
		UserID:  item.SellerID,
		Type:    models.NotificationItemModerated,
		Title:   "Modération de votre annonce",
		Message: message,
		Data:    map[string]interface{}{"itemId": item.ID, "status": req.Status},
		Link:    "/marketplace/" + item.ID,
	})
	events.Emit(ctx, s.publisher, events.SubjectMarketplaceModerated, map[string]interface{}{
		"itemId":      item.ID,
		"status":      req.Status,
		"previous":    previous,
		"moderatedBy": actor.UserID,
	})
	return item, nil
}

// ReportItem records one report per user. Reaching the threshold suspends an approved item.
func (s *MarketplaceServiceImpl) ReportItem(ctx context.Context, db *gorm.DB, actor Actor, itemID string, req *dto.ReportItemRequest) (*ReportResult, error) {
	item, err := s.findItem(db, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ItemStatusApproved && !actor.CanModify(item.SellerID) {
		return nil, apperrors.ErrItemNotFound
	}
	if item.SellerID == actor.UserID {
		return nil, apperrors.ErrCannotReportOwnItem
	}

	count, err := s.itemRepo.CreateReport(db, &models.MarketplaceReport{
		ItemID: itemID,
		UserID: actor.UserID,
		Reason: req.Reason,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyReported) {
			return nil, apperrors.ErrAlreadyReported
		}
		return nil, handleItemError(err)
	}
	s.itemCache.Invalidate(ctx, itemID)

	result := &ReportResult{Reports: count}
	if count < s.config.ReportThreshold {
		return result, nil
	}

	suspended, err := s.itemRepo.SuspendIfApproved(db, itemID, "Suspendue automatiquement après signalements")
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if suspended {
		// a read between the report and the suspension may have cached the approved item
		s.itemCache.Invalidate(ctx, itemID)
		result.Suspended = true
		s.metrics.ItemModerated(string(models.ItemStatusSuspended))
		logger.CtxWarn(ctx, "Marketplace item suspended after reports", "item_id", itemID, "reports", count)
		s.notify(ctx, db, Notice{
			UserID:  item.SellerID,
			Type:    models.NotificationItemReported,
			Title:   "Annonce suspendue",
			Message: fmt.Sprintf("Votre annonce « %s » a été suspendue suite à plusieurs signalements.", item.Title),
			Data:    map[string]interface{}{"itemId": item.ID, "reports": count},
			Link:    "/marketplace/" + item.ID,
		})
	}
	return result, nil
}

// ---------------- Images ----------------

func (s *MarketplaceServiceImpl) AddImage(ctx context.Context, db *gorm.DB, actor Actor, itemID string, upload dto.ImageUpload, reader io.Reader) (*models.MarketplaceItem, error) {
	item, err := s.findModifiable(db, actor, itemID)
	if err != nil {
		return nil, err
	}
	if len(item.Images) >= s.config.MaxImages {
		return nil, apperrors.ErrTooManyImages
	}
	if upload.Size > s.config.MaxUploadSize {
		return nil, apperrors.ErrFileTooLarge
	}
	if !s.allowedType(upload.ContentType) {
		return nil, apperrors.ErrInvalidFileType
	}

	data, err := io.ReadAll(io.LimitReader(reader, s.config.MaxUploadSize+1))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if int64(len(data)) > s.config.MaxUploadSize {
		return nil, apperrors.ErrFileTooLarge
	}

	img, format, err := imageprocessor.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.ErrInvalidFileType.WithError(err)
	}
	large, err := s.processor.Fit(img, format, imageprocessor.SizeLarge)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	thumb, err := s.processor.Fit(img, format, imageprocessor.SizeThumbnail)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	base := fmt.Sprintf("marketplace/%s/%s", item.ID, uuid.NewString())
	ext := imageprocessor.Extension(large.Format)
	path, thumbPath := base+ext, base+"_thumb"+ext

	if err := s.storage.Save(ctx, path, bytes.NewReader(large.Data), int64(len(large.Data)), large.ContentType); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.storage.Save(ctx, thumbPath, bytes.NewReader(thumb.Data), int64(len(thumb.Data)), thumb.ContentType); err != nil {
		s.deleteStored(ctx, path)
		return nil, apperrors.InternalError(err)
	}

	item.Images = append(item.Images, models.MarketplaceImage{
		URL:           s.storage.URL(path),
		ThumbnailURL:  s.storage.URL(thumbPath),
		Path:          path,
		ThumbnailPath: thumbPath,
	})
	if err := s.itemRepo.Update(db, item); err != nil {
		s.deleteStored(ctx, path, thumbPath)
		return nil, apperrors.InternalError(err)
	}
	s.itemCache.Invalidate(ctx, itemID)

	logger.CtxInfo(ctx, "Marketplace image uploaded", "item_id", itemID, "path", path, "filename", upload.Filename)
	return item, nil
}

func (s *MarketplaceServiceImpl) DeleteImage(ctx context.Context, db *gorm.DB, actor Actor, itemID string, index int) (*models.MarketplaceItem, error) {
	item, err := s.findModifiable(db, actor, itemID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(item.Images) {
		return nil, apperrors.ErrImageNotFound
	}

	removed := item.Images[index]
	images := make([]models.MarketplaceImage, 0, len(item.Images)-1)
	images = append(images, item.Images[:index]...)
	images = append(images, item.Images[index+1:]...)
	item.Images = images

	if err := s.itemRepo.Update(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	s.itemCache.Invalidate(ctx, itemID)
	s.deleteStored(ctx, removed.Path, removed.ThumbnailPath)
	return item, nil
}

// ---------------- helpers ----------------

func (s *MarketplaceServiceImpl) requireSubscription(db *gorm.DB, actor Actor) error {
	if !s.config.RequireSubscription || actor.IsAdmin() {
		return nil
	}
	_, err := s.subscriptionRepo.FindCurrent(db, actor.UserID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return apperrors.ErrSubscriptionRequired
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *MarketplaceServiceImpl) findItem(db *gorm.DB, itemID string) (*models.MarketplaceItem, error) {
	item, err := s.itemRepo.FindByID(db, itemID)
	if err != nil {
		return nil, handleItemError(err)
	}
	return item, nil
}

// findModifiable loads an item the actor owns. Non-owners get a 403 on
// approved items and a 404 on hidden ones.
func (s *MarketplaceServiceImpl) findModifiable(db *gorm.DB, actor Actor, itemID string) (*models.MarketplaceItem, error) {
	item, err := s.findItem(db, itemID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(item.SellerID) {
		if item.Status != models.ItemStatusApproved {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.ErrInsufficientPermissions
	}
	return item, nil
}

func (s *MarketplaceServiceImpl) allowedType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, t := range s.config.AllowedTypes {
		if ct == t {
			return true
		}
	}
	return false
}

func (s *MarketplaceServiceImpl) deleteStored(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.storage.Delete(ctx, p); err != nil {
			logger.CtxWithError(ctx, "Failed to delete stored file", err, "path", p)
		}
	}
}

func (s *MarketplaceServiceImpl) notify(ctx context.Context, db *gorm.DB, notice Notice) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Notify(ctx, db, notice); err != nil {
		logger.CtxWithError(ctx, "Failed to notify user", err, "recipient", notice.UserID, "type", notice.Type)
	}
}

func handleItemError(err error) error {
	if errors.Is(err, repositories.ErrItemNotFound) {
		return apperrors.ErrItemNotFound
	}
	return apperrors.InternalError(err)
}

func itemStatusLabel(status models.ItemStatus) string {
	switch status {
	case models.ItemStatusApproved:
		return "approuvée"
	case models.ItemStatusRejected:
		return "refusée"
	case models.ItemStatusSuspended:
		return "suspendue"
	}
	return "en attente de modération"
}
