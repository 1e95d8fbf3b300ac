package dto

// ReferenceResponse is a master-data row.
type ReferenceResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OrderNo int    `json:"orderNo"`
}

// CategoryDetailResponse is a master-data row scoped to a category.
type CategoryDetailResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
	OrderNo    int    `json:"orderNo"`
}

// ResponseCategoryResponse carries the optional grouping label.
type ResponseCategoryResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ParentCategory *string `json:"parentCategory"`
	OrderNo        int     `json:"orderNo"`
}

// AttachmentResponse is file metadata for a ticket.
type AttachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	OrderNo  int    `json:"orderNo"`
}
