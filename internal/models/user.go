package models

// User — профиль пользователя из коллекции users.
// Выпуском токенов и паролями занимается внешний auth-сервис, здесь только чтение.
type User struct {
	ID    string
	Name  string
	Email string
}

// Session — идентичность пользователя, разрешённая из токена сессии
// для одного запроса. Передаётся в сервис явно, глобального состояния нет.
type Session struct {
	UserID string
	Email  string
	Name   string
}

// Author делает снимок автора для нового комментария.
// Возвращается копия значений: последующее переименование пользователя
// не меняет уже опубликованные комментарии.
func (s Session) Author() Author {
	return Author{
		ID:    s.UserID,
		Name:  s.Name,
		Email: s.Email,
	}
}
