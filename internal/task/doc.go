// Package task реализует планировщик выполнения одной задачи.
//
// # Обзор
//
// Task связывает пользовательский callback с двумя примитивами:
//
//   - Window — скользящее окно коалесцирования: отвечает на вопрос
//     "идёт ли сейчас серия событий?"
//   - Heap — мультимножество незавершённых выполнений (Execution)
//     с одноразовым уведомлением о переходе в пустое состояние.
//
// Вместе они гарантируют: одновременно выполняется не больше одного
// запуска задачи (при Serialize), за ним в очереди стоит не больше одного
// следующего, а частые триггеры внутри активного окна не порождают
// новых запусков.
//
// # Алгоритм Invoke
//
//  1. Окно активно и в Heap есть выполнения → вернуть последнее.
//     Heap пуст (гонка таймера) → продолжаем как обычно.
//  2. Serialize и в Heap больше одного выполнения → вернуть последнее.
//  3. Serialize и в Heap ровно одно → поставить в очередь новое
//     выполнение, которое дождётся текущего, и сразу вернуть его.
//  4. Иначе → выполнить callback немедленно.
//
// Жизненный цикл:
//
//	Idle → Running → Idle
//	             ↘ QueuedNext → Running → Idle
//
// # Future
//
// Invoke возвращает *Execution (Future[bool]). Он всегда разрешается:
// true при успехе, false при ошибке или панике callback'а. Ошибка
// callback'а наружу не пробрасывается — она попадает в Hooks.OnFail.
//
// # Debouncer
//
// Debouncer — отдельный примитив для произвольных функций без
// регистрации задачи: ведущая задержка перед первым запуском каждого
// тихого периода и один догоняющий запуск для вызовов, пришедших во
// время выполнения.
package task
