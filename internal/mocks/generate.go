package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name OwnedSession --dir ../domain/gamedata --output domain/gamedata --outpkg gamedatamock --filename owned_session_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name SessionOpener --dir ../domain/gamedata --output domain/gamedata --outpkg gamedatamock --filename session_opener_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Catalog --dir ../domain/gamedata --output domain/gamedata --outpkg gamedatamock --filename catalog_mock.go
