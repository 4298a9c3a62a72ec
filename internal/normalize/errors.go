package normalize

import "github.com/rotisserie/eris"

// ErrInvalidRecord marks a row that cannot represent an entity (empty or
// implausibly short company name, misextracted header row). Callers drop
// the row and count it.
var ErrInvalidRecord = eris.New("normalize: invalid record")

// ErrInvalidDate marks a date field that matched no accepted source format.
// Callers drop the row and count it rather than coercing the value.
var ErrInvalidDate = eris.New("normalize: invalid date")
