package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant (grpc on 6334)
//docker run -p 6333:6333 -p 6334:6334 -v docqaIndex:/qdrant/storage qdrant/qdrant

//or skip both: VECTOR_STORE=chromem keeps the index on local disk and jobs fall back to memory

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
