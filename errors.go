package udal

import "errors"

var (
	// ErrUnknownQuery возвращается при выполнении запроса, отсутствующего в реестре.
	ErrUnknownQuery = errors.New("запрос не найден")
	// ErrQueryExists возвращается при повторной регистрации запроса с тем же именем.
	ErrQueryExists = errors.New("запрос уже зарегистрирован")
	// ErrEmptyName возвращается при создании запроса или драйвера с пустым именем.
	ErrEmptyName = errors.New("имя не может быть пустым")
	// ErrInvalidParams оборачивает ошибки проверки аргументов запроса.
	ErrInvalidParams = errors.New("некорректные параметры запроса")
	// ErrNilQueryInfo возвращается при регистрации запроса без описания.
	ErrNilQueryInfo = errors.New("описание запроса не задано")
	// ErrNilHandler возвращается при регистрации пустого обработчика запроса или фабрики драйвера.
	ErrNilHandler = errors.New("обработчик не задан")
	// ErrNilResult возвращается, если реализация не вернула ни результата, ни ошибки.
	ErrNilResult = errors.New("реализация вернула пустой результат")
	// ErrDataType возвращается, если данные результата нельзя привести к запрошенному типу.
	ErrDataType = errors.New("данные результата нельзя привести к запрошенному типу")
	// ErrUnknownDriver возвращается при открытии незарегистрированного драйвера.
	ErrUnknownDriver = errors.New("драйвер не найден")
	// ErrDriverExists возвращается при повторной регистрации драйвера.
	ErrDriverExists = errors.New("драйвер уже зарегистрирован")
)
