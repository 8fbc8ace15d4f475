package validators

import "go.mongodb.org/mongo-driver/bson"

// BookingValidator mirrors the checks a record passed before it was appended.
var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"received_at",
			"ip",
			"name",
			"email",
			"checkin",
			"checkout",
			"guests",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"received_at": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"ip": bson.M{
				"bsonType": "string",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  `^[^\s@]+@[^\s@]+\.[^\s@]+$`,
			},

			"checkin": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"checkout": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  20,
			},

			"notes": bson.M{
				"bsonType": "string",
			},
		},
	},
}
