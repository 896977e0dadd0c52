package scan

import (
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docscan/internal/common"
)

func parseID(id string) (uuid.UUID, error) {
	id = strings.TrimSpace(id)
	if err := common.NewValidator().Field("record_id", id, common.UUID).Error(); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(id), nil
}
