package mongodb

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"fintrack/internal/core"
)

// transactionFilter translates a query's user scope and criteria to a BSON filter.
func transactionFilter(q core.TransactionQuery) bson.M {
	filter := bson.M{"user_id": q.UserID()}
	var and []bson.M

	for _, c := range q.Criteria() {
		switch c := c.(type) {
		case core.TextSearch:
			and = append(and, bson.M{"title": bson.M{"$regex": regexp.QuoteMeta(c.Text), "$options": "i"}})
		case core.DateRange:
			bounds := bson.M{}
			if !c.From.IsZero() {
				bounds["$gte"] = c.From
			}
			if !c.To.IsZero() {
				bounds["$lte"] = c.To
			}
			and = append(and, bson.M{"date": bounds})
		case core.TypeIs:
			and = append(and, bson.M{"type": string(c.Type)})
		case core.CategoryIs:
			and = append(and, bson.M{"category": c.Category})
		default:
			panic(fmt.Sprintf("mongodb: unsupported criterion %T", c))
		}
	}

	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func transactionSort(order core.SortOrder) bson.D {
	switch order {
	case core.OldestFirst:
		return bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}
	case core.AmountHighToLow:
		return bson.D{{Key: "amount_cents", Value: -1}, {Key: "_id", Value: 1}}
	case core.AmountLowToHigh:
		return bson.D{{Key: "amount_cents", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}
	}
}
