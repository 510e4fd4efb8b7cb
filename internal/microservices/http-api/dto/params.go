package dto

// Path parameters. Postgres rejects a malformed uuid with an error rather
// than an empty result, so ids are checked before they reach a query.

type IDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type BookIDParam struct {
	BookID string `uri:"bookId" binding:"required,uuid"`
}
