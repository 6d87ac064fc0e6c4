package handle

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/service"
	"github.com/yeisme/codevault/pkg/internal/types"
	"github.com/yeisme/codevault/pkg/log"
)

// multipart 头部与其他字段预留的字节数.
const multipartOverhead = 1 << 20

// UploadFile 上传文件并设置访问码.
//
//	@Summary		上传文件
//	@Description	multipart 上传，字段 file 为内容，codes 可重复出现；name 缺省时使用文件名
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file		true	"文件内容"
//	@Param			codes	formData	[]string	true	"访问码"	collectionFormat(multi)
//	@Param			name	formData	string		false	"显示名称"
//	@Success		201		{object}	model.File
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Failure		503		{object}	map[string]string
//	@Router			/api/v1/files [post]
func UploadFile(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())
	limit := svc.MaxUploadBytes()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})

		return
	}

	if fh.Size > limit {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	content, err := readUpload(fh)
	if err != nil {
		log.FromContext(c.Request.Context()).Warn().Err(err).Msg("read upload failed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})

		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = fh.Filename
	}

	f, err := svc.CreateFile(c.Request.Context(), service.CreateFileInput{
		OwnerID:  sess.ID,
		Name:     name,
		MimeType: fh.Header.Get("Content-Type"),
		Content:  content,
		Codes:    c.PostFormArray("codes"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	r, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// CreateLink 创建链接分享.
//
//	@Summary	分享链接
//	@Tags		文件
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.CreateLinkRequest	true	"链接信息"
//	@Success	201		{object}	model.File
//	@Failure	400		{object}	map[string]string
//	@Failure	401		{object}	map[string]string
//	@Failure	409		{object}	map[string]string
//	@Router		/api/v1/files/link [post]
func CreateLink(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	var req types.CreateLinkRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := service.NewFileService(c.Request.Context()).CreateLink(c.Request.Context(), service.CreateLinkInput{
		OwnerID: sess.ID,
		Name:    req.Name,
		URL:     req.URL,
		Codes:   req.Codes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

// ListFiles 当前用户的分享列表.
//
//	@Summary	我的文件
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.ListFilesResponse
//	@Failure	401	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/files [get]
func ListFiles(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	files, err := svc.ListFiles(c.Request.Context(), sess.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := types.ListFilesResponse{Files: make([]types.FileView, 0, len(files)), Quota: svc.Quota()}
	for _, f := range files {
		resp.Files = append(resp.Files, types.FileView{File: f, UnusedCodes: f.UnusedCodes()})
	}

	c.JSON(http.StatusOK, resp)
}

// GetFile 查看单个文件及访问码状态.
//
//	@Summary	文件详情
//	@Tags		文件
//	@Produce	json
//	@Param		id	path		string	true	"文件 ID"
//	@Success	200	{object}	types.FileView
//	@Failure	403	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/files/{id} [get]
func GetFile(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	svc := service.NewFileService(c.Request.Context())

	f, err := svc.GetFile(c.Request.Context(), sess.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := fileView(c, svc, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteFile 删除文件，重复删除同样返回 204.
//
//	@Summary	删除文件
//	@Tags		文件
//	@Param		id	path	string	true	"文件 ID"
//	@Success	204
//	@Failure	403	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	if err := service.NewFileService(c.Request.Context()).DeleteFile(c.Request.Context(), sess.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// fileView 附带剩余访问码数量，对象存储内容附带预签名地址.
func fileView(c *gin.Context, svc *service.FileService, f *model.File) (types.FileView, error) {
	view := types.FileView{File: f, UnusedCodes: f.UnusedCodes()}

	if f.StorageKey != "" {
		u, err := svc.ResolveContent(c.Request.Context(), f)
		if err != nil {
			return types.FileView{}, err
		}

		view.DownloadURL = u
	}

	return view, nil
}
