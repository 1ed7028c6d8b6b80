package upload

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/storage"
	"github.com/siwachprerit/Drafted/internal/util"
)

// MaxImageSize 单张图片的大小上限
const MaxImageSize = 5 << 20

type UploadHandler struct {
	storage storage.Uploader
}

func NewUploadHandler(uploader storage.Uploader) *UploadHandler {
	return &UploadHandler{storage: uploader}
}

// UploadImage 接收表单字段 image，保存后返回访问地址
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageSize+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		util.Logger.Warn("无法读取上传文件", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "请选择要上传的图片", err))
		return
	}
	if file.Size > MaxImageSize {
		errors.HandleError(c, errors.New(errors.ErrValidation, "图片不能超过5MB"))
		return
	}
	if !util.IsAllowedImage(file.Filename, file.Header.Get("Content-Type")) {
		errors.HandleError(c, errors.New(errors.ErrValidation, "只支持 jpeg、jpg、png、webp、gif 格式的图片"))
		return
	}

	userID := c.GetInt(middleware.ContextUserID)
	key := storage.ImageKey(userID, util.GenerateUniqueFilename(file.Filename))
	url, err := h.storage.UploadFile(c.Request.Context(), file, key)
	if err != nil {
		util.Logger.Error("图片上传失败", zap.Error(err), zap.Int("user_id", userID))
		errors.HandleError(c, errors.Wrap(errors.ErrUnavailable, "图片上传失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{"imageUrl": url}, "上传成功")
}
