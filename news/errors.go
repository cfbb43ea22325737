package news

import "fmt"

type (
	ArticleNotFound struct {
		ID int64
	}
)

func (a ArticleNotFound) Error() string {
	return fmt.Sprintf("news article %v not found", a.ID)
}
