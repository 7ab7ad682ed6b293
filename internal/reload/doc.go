// Package reload реализует dev-сервер статики с живой перезагрузкой.
//
// Сервер отдаёт файлы из каталога сборки. Запросы к несуществующим путям
// получают fallback-файл (по умолчанию index.html), что удобно для SPA.
// В каждый HTML-ответ дописывается тег <script>, подключающий
// /__reload-client.js. Клиентский скрипт открывает WebSocket на
// отдельном порту и перезагружает страницу, получив сообщение "reload".
//
//	srv := reload.New(reload.DefaultConfig(), reload.WithReloadPort(9001))
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(context.Background())
//
//	// после пересборки
//	srv.Reload()
package reload
