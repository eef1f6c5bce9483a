package helper

import "TaskChatAPI/internal/model"

func NewPagination(page, limit int, total int64) model.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return model.Pagination{
		Page:          page,
		Limit:         limit,
		TotalMessages: total,
		TotalPages:    totalPages,
	}
}
