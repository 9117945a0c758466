package elasticsearch

// DefaultIndexName is the index used when none is configured.
const DefaultIndexName = "perfume_products"

// indexMapping is the settings and mapping of the products index. Keyword
// sub-fields are lowercased so brand filters and name sorting ignore case.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "normalizer": {
        "lowercase_normalizer": { "type": "custom", "filter": ["lowercase", "asciifolding"] }
      },
      "analyzer": {
        "fragrance_text": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "english_stop", "english_stemmer"]
        }
      },
      "filter": {
        "english_stop": { "type": "stop", "stopwords": "_english_" },
        "english_stemmer": { "type": "stemmer", "language": "english" }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":              { "type": "keyword" },
      "name":            { "type": "text", "analyzer": "fragrance_text", "fields": { "keyword": { "type": "keyword", "normalizer": "lowercase_normalizer" } } },
      "slug":            { "type": "keyword" },
      "description":     { "type": "text", "analyzer": "fragrance_text" },
      "brand":           { "type": "text", "analyzer": "fragrance_text", "fields": { "keyword": { "type": "keyword", "normalizer": "lowercase_normalizer" } } },
      "collection_id":   { "type": "keyword" },
      "gender":          { "type": "keyword" },
      "volume_ml":       { "type": "integer" },
      "notes":           { "type": "text", "analyzer": "fragrance_text" },
      "price":           { "type": "long" },
      "discount_price":  { "type": "long" },
      "effective_price": { "type": "long" },
      "stock":           { "type": "integer" },
      "in_stock":        { "type": "boolean" },
      "images":          { "type": "keyword", "index": false },
      "status":          { "type": "keyword" },
      "featured":        { "type": "boolean" },
      "created_at":      { "type": "date" },
      "updated_at":      { "type": "date" }
    }
  }
}`
