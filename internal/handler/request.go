package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/gradadmin-api/pkg/errors"
)

const maxFormMemory = 8 << 20

// rawFields collects the submitted fields of a create or update request. JSON objects,
// urlencoded forms and multipart forms are all accepted; every value becomes a string.
func rawFields(c *gin.Context) (url.Values, error) {
	contentType := c.ContentType()
	switch {
	case contentType == gin.MIMEJSON || strings.HasSuffix(contentType, "+json"):
		return jsonFields(c.Request.Body)
	case contentType == gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, invalidPayload(err)
		}
		return c.Request.PostForm, nil
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, invalidPayload(err)
		}
		return c.Request.PostForm, nil
	}
}

func jsonFields(body io.Reader) (url.Values, error) {
	var obj map[string]interface{}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		if err == io.EOF {
			return url.Values{}, nil
		}
		return nil, invalidPayload(err)
	}
	out := make(url.Values, len(obj))
	for key, value := range obj {
		values, err := flatten(value)
		if err != nil {
			return nil, appErrors.Clonef(appErrors.ErrInvalidFormat, "%s: %v", key, err)
		}
		if len(values) > 0 {
			out[key] = values
		}
	}
	return out, nil
}

func flatten(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case json.Number:
		return []string{v.String()}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			values, err := flatten(item)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nested objects are not supported")
	}
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

// pathID reads a uuid path parameter. Anything else cannot name a stored entity.
func pathID(c *gin.Context, key, kind string) (string, error) {
	id := c.Param(key)
	if _, err := uuid.Parse(id); err != nil {
		return "", appErrors.Clonef(appErrors.ErrNotFound, "%s not found", kind)
	}
	return id, nil
}

func paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// filterValues drops paging keys from the query string.
func filterValues(c *gin.Context, reserved ...string) url.Values {
	query := c.Request.URL.Query()
	for _, key := range append([]string{"page", "limit"}, reserved...) {
		query.Del(key)
	}
	return query
}
